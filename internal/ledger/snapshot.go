package ledger

import (
	"context"
	"errors"
	"fmt"

	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// HoldingView is a lot valued at the current market price.
type HoldingView struct {
	models.Lot
	CurrentPrice decimal.Decimal `json:"current_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"`
}

// Snapshot is a point-in-time valuation of a portfolio.
type Snapshot struct {
	Balance          decimal.Decimal `json:"balance"`
	OriginalBalance  decimal.Decimal `json:"original_balance"`
	HoldingsValue    decimal.Decimal `json:"holdings_value"`
	NetValue         decimal.Decimal `json:"net_value"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	NetProfitPercent decimal.Decimal `json:"net_profit_percent"`
	Holdings         []HoldingView   `json:"holdings"`
}

// ComputePortfolioSnapshot values the user's holdings at current prices.
// It does not write anything. If any symbol cannot be priced the whole
// snapshot fails.
func (l *Ledger) ComputePortfolioSnapshot(ctx context.Context, userID uint) (*Snapshot, error) {
	var (
		account  *models.Account
		lots     []models.Lot
		baseline *models.HistoryEvent
	)
	err := l.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		account, err = tx.GetAccount(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if lots, err = tx.ListAllLots(ctx, userID); err != nil {
			return fmt.Errorf("failed to load lots: %w", err)
		}
		baseline, err = tx.EarliestBalanceEdit(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load balance baseline: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal)
	for _, lot := range lots {
		if _, ok := prices[lot.Symbol]; ok {
			continue
		}
		q, err := l.price(ctx, lot.Symbol)
		if err != nil {
			return nil, err
		}
		prices[lot.Symbol] = q.Price
	}

	snap := &Snapshot{
		Balance:         account.Balance,
		OriginalBalance: originalBalance(baseline, account.Balance),
		HoldingsValue:   decimal.Zero,
		Holdings:        make([]HoldingView, 0, len(lots)),
	}
	for _, lot := range lots {
		price := prices[lot.Symbol]
		value := price.Mul(decimal.NewFromInt(lot.Amount))
		snap.Holdings = append(snap.Holdings, HoldingView{
			Lot:          lot,
			CurrentPrice: price,
			CurrentValue: value,
			UnrealizedPL: value.Sub(lot.TotalValue),
		})
		snap.HoldingsValue = snap.HoldingsValue.Add(value)
	}

	snap.NetValue = snap.Balance.Add(snap.HoldingsValue)
	snap.NetProfit = snap.NetValue.Sub(snap.OriginalBalance)
	snap.NetProfitPercent = decimal.Zero
	if !snap.OriginalBalance.IsZero() {
		snap.NetProfitPercent = snap.NetProfit.Div(snap.OriginalBalance).Mul(hundred).Round(2)
	}
	return snap, nil
}

// originalBalance prefers the dedicated baseline column and falls back to
// total_value for rows written before it existed.
func originalBalance(edit *models.HistoryEvent, current decimal.Decimal) decimal.Decimal {
	switch {
	case edit == nil:
		return current
	case edit.BaselineBalance.Valid:
		return edit.BaselineBalance.Decimal
	default:
		return edit.TotalValue
	}
}
