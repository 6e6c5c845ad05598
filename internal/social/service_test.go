package social

import (
	"context"
	"testing"

	"paper-trader-go/internal/database/databasetest"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*Service, repository.Store, map[string]uint) {
	store := repository.NewStore(databasetest.NewMemoryDB(t))
	ids := make(map[string]uint)
	for _, name := range []string{"alice", "bob", "carol"} {
		u := &models.User{FirstName: name, LastName: "X", Username: name, PasswordHash: "h"}
		require.NoError(t, store.CreateUser(context.Background(), u))
		ids[name] = u.ID
	}
	return NewService(store, zap.NewNop()), store, ids
}

func TestSendFriendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("ReciprocalRequestFormsFriendship", func(t *testing.T) {
		svc, store, ids := setupService(t)

		outcome, err := svc.SendFriendRequest(ctx, ids["alice"], "bob")
		require.NoError(t, err)
		assert.Equal(t, RequestSent, outcome)

		reqs, err := svc.ListRequests(ctx, ids["bob"])
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, "alice", reqs[0].From)

		outcome, err = svc.SendFriendRequest(ctx, ids["bob"], "alice")
		require.NoError(t, err)
		assert.Equal(t, RequestAccepted, outcome)

		friends, err := svc.ListFriends(ctx, ids["alice"])
		require.NoError(t, err)
		assert.Equal(t, []Friend{{ID: ids["bob"], Username: "bob"}}, friends)

		reqs, err = svc.ListRequests(ctx, ids["bob"])
		require.NoError(t, err)
		assert.Empty(t, reqs)

		events, err := store.ListHistory(ctx, ids["alice"])
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, models.EventFriendRequest, events[0].Type)
	})

	t.Run("Errors", func(t *testing.T) {
		svc, _, ids := setupService(t)

		_, err := svc.SendFriendRequest(ctx, ids["alice"], "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = svc.SendFriendRequest(ctx, ids["alice"], "alice")
		assert.ErrorIs(t, err, ErrSelfRequest)

		_, err = svc.SendFriendRequest(ctx, ids["alice"], "carol")
		require.NoError(t, err)
		_, err = svc.SendFriendRequest(ctx, ids["alice"], "carol")
		assert.ErrorIs(t, err, ErrRequestExists)

		_, err = svc.SendFriendRequest(ctx, ids["carol"], "alice")
		require.NoError(t, err)
		_, err = svc.SendFriendRequest(ctx, ids["alice"], "carol")
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	})
}

func TestLeagues(t *testing.T) {
	ctx := context.Background()
	svc, _, ids := setupService(t)

	_, err := svc.CreateLeague(ctx, ids["alice"], " ", "")
	assert.ErrorIs(t, err, ErrMissingName)

	league, err := svc.CreateLeague(ctx, ids["alice"], "Value Investors", "long only")
	require.NoError(t, err)

	leagues, err := svc.ListLeagues(ctx, ids["alice"])
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, league.ID, leagues[0].ID)

	require.NoError(t, svc.JoinLeague(ctx, ids["bob"], league.ID))
	assert.ErrorIs(t, svc.JoinLeague(ctx, ids["bob"], league.ID), ErrAlreadyMember)
	assert.ErrorIs(t, svc.JoinLeague(ctx, ids["bob"], 999), ErrLeagueNotFound)

	leagues, err = svc.ListLeagues(ctx, ids["bob"])
	require.NoError(t, err)
	assert.Len(t, leagues, 1)
}

func TestDeletedUserCannotWrite(t *testing.T) {
	ctx := context.Background()
	svc, store, ids := setupService(t)

	league, err := svc.CreateLeague(ctx, ids["bob"], "Open League", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteSocialData(ctx, ids["alice"]))
	require.NoError(t, store.DeleteUser(ctx, ids["alice"]))

	_, err = svc.SendFriendRequest(ctx, ids["alice"], "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.CreateLeague(ctx, ids["alice"], "Ghost League", "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.JoinLeague(ctx, ids["alice"], league.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	events, err := store.ListHistory(ctx, ids["alice"])
	require.NoError(t, err)
	assert.Empty(t, events)

	reqs, err := svc.ListRequests(ctx, ids["bob"])
	require.NoError(t, err)
	assert.Empty(t, reqs)

	leagues, err := svc.ListLeagues(ctx, ids["alice"])
	require.NoError(t, err)
	assert.Empty(t, leagues)

	leagues, err = svc.ListLeagues(ctx, ids["bob"])
	require.NoError(t, err)
	assert.Len(t, leagues, 1)
}
