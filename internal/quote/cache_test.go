package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(*Quote)
	return q, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, symbol string) (*Quote, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(*Quote)
	return q, args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, q *Quote) error {
	return m.Called(ctx, q).Error(0)
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	aapl := &Quote{Symbol: "AAPL", Price: decimal.RequireFromString("190.12")}

	t.Run("Hit", func(t *testing.T) {
		next := new(mockProvider)
		cache := new(mockCache)
		cache.On("Get", ctx, "AAPL").Return(aapl, nil)

		q, err := NewCachedProvider(next, cache, zap.NewNop()).Lookup(ctx, "aapl")

		require.NoError(t, err)
		assert.Same(t, aapl, q)
		next.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("MissStores", func(t *testing.T) {
		next := new(mockProvider)
		cache := new(mockCache)
		cache.On("Get", ctx, "AAPL").Return(nil, nil)
		next.On("Lookup", ctx, "AAPL").Return(aapl, nil)
		cache.On("Set", ctx, aapl).Return(nil)

		q, err := NewCachedProvider(next, cache, zap.NewNop()).Lookup(ctx, "AAPL")

		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
		cache.AssertExpectations(t)
		next.AssertExpectations(t)
	})

	t.Run("CacheDownFallsThrough", func(t *testing.T) {
		next := new(mockProvider)
		cache := new(mockCache)
		cache.On("Get", ctx, "AAPL").Return(nil, errors.New("connection refused"))
		next.On("Lookup", ctx, "AAPL").Return(aapl, nil)
		cache.On("Set", ctx, aapl).Return(errors.New("connection refused"))

		q, err := NewCachedProvider(next, cache, zap.NewNop()).Lookup(ctx, "AAPL")

		require.NoError(t, err)
		assert.True(t, aapl.Price.Equal(q.Price))
	})

	t.Run("ErrorsAreNotCached", func(t *testing.T) {
		next := new(mockProvider)
		cache := new(mockCache)
		cache.On("Get", ctx, "NOPE").Return(nil, nil)
		next.On("Lookup", ctx, "NOPE").Return(nil, ErrSymbolNotFound)

		_, err := NewCachedProvider(next, cache, zap.NewNop()).Lookup(ctx, "NOPE")

		assert.ErrorIs(t, err, ErrSymbolNotFound)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	})
}
