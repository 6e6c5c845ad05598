package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paper-trader-go/internal/models"
	"paper-trader-go/internal/quote"
	"paper-trader-go/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteProvider returns the current price of a symbol.
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (*quote.Quote, error)
}

// Ledger applies trades and balance changes to user portfolios.
// Every mutation runs in a single store transaction; quotes are fetched
// before the transaction starts.
type Ledger struct {
	store  repository.Store
	quotes QuoteProvider
	logger *zap.Logger
	now    func() time.Time
}

// TradeResult describes a completed buy or sell.
type TradeResult struct {
	Symbol    string          `json:"symbol"`
	Amount    int64           `json:"amount"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
}

// New creates a Ledger.
func New(store repository.Store, quotes QuoteProvider, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:  store,
		quotes: quotes,
		logger: logger.Named("ledger"),
		now:    time.Now,
	}
}

// price looks up symbol and maps provider failures onto ledger errors.
func (l *Ledger) price(ctx context.Context, symbol string) (*quote.Quote, error) {
	q, err := l.quotes.Lookup(ctx, symbol)
	switch {
	case err == nil:
		return q, nil
	case errors.Is(err, quote.ErrSymbolNotFound):
		return nil, fmt.Errorf("%w: %s", ErrInvalidSymbol, symbol)
	default:
		l.logger.Warn("Quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
}

func lockAccount(ctx context.Context, tx repository.Store, userID uint) (*models.Account, error) {
	account, err := tx.GetAccountForUpdate(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// Buy purchases amount shares of symbol at the current price.
// A lot bought earlier at exactly the same unit price is topped up instead of
// adding a new lot.
func (l *Ledger) Buy(ctx context.Context, userID uint, symbol string, amount int64) (*TradeResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	symbol = quote.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	q, err := l.price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	shares := decimal.NewFromInt(amount)
	cost := q.Price.Mul(shares)
	now := l.now()

	var result *TradeResult
	err = l.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}

		balance := account.Balance.Sub(cost)
		if balance.IsNegative() {
			return ErrInsufficientFunds
		}
		if err := tx.UpdateBalance(ctx, userID, balance); err != nil {
			return fmt.Errorf("failed to debit balance: %w", err)
		}

		lots, err := tx.ListLots(ctx, userID, q.Symbol)
		if err != nil {
			return fmt.Errorf("failed to load lots: %w", err)
		}
		merged := false
		for i := range lots {
			if !lots[i].UnitValue.Equal(q.Price) {
				continue
			}
			lots[i].Amount += amount
			lots[i].Recompute()
			if err := tx.SaveLot(ctx, &lots[i]); err != nil {
				return fmt.Errorf("failed to update lot: %w", err)
			}
			merged = true
			break
		}
		if !merged {
			lot := &models.Lot{
				UserID:      userID,
				Symbol:      q.Symbol,
				Amount:      amount,
				UnitValue:   q.Price,
				PurchasedAt: now,
			}
			lot.Recompute()
			if err := tx.CreateLot(ctx, lot); err != nil {
				return fmt.Errorf("failed to create lot: %w", err)
			}
		}

		event := &models.HistoryEvent{
			Type:       models.EventBuy,
			Sender:     models.SystemParty(models.Market),
			Receiver:   models.UserParty(userID),
			Symbol:     q.Symbol,
			Amount:     amount,
			UnitValue:  q.Price,
			TotalValue: cost,
			CreatedAt:  now,
		}
		if err := tx.AppendHistory(ctx, event); err != nil {
			return fmt.Errorf("failed to record buy: %w", err)
		}

		result = &TradeResult{Symbol: q.Symbol, Amount: amount, UnitPrice: q.Price, Total: cost, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Bought shares",
		zap.Uint("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("amount", amount),
		zap.String("price", q.Price.String()),
	)
	return result, nil
}

// Sell sells amount shares of symbol, consuming the oldest lots first.
// Proceeds are valued at the current price, not at the lots' cost.
func (l *Ledger) Sell(ctx context.Context, userID uint, symbol string, amount int64) (*TradeResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	symbol = quote.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	q, err := l.price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(amount))
	now := l.now()

	var result *TradeResult
	err = l.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}

		lots, err := tx.ListLots(ctx, userID, q.Symbol)
		if err != nil {
			return fmt.Errorf("failed to load lots: %w", err)
		}
		if len(lots) == 0 {
			return ErrNoSharesOwned
		}
		var owned int64
		for _, lot := range lots {
			owned += lot.Amount
		}
		if owned < amount {
			return fmt.Errorf("%w: own %d, selling %d", ErrInsufficientShares, owned, amount)
		}

		remaining := amount
		for i := range lots {
			if remaining == 0 {
				break
			}
			lot := &lots[i]
			if lot.Amount <= remaining {
				remaining -= lot.Amount
				if err := tx.DeleteLot(ctx, lot.ID); err != nil {
					return fmt.Errorf("failed to remove lot: %w", err)
				}
				continue
			}
			lot.Amount -= remaining
			lot.Recompute()
			remaining = 0
			if err := tx.SaveLot(ctx, lot); err != nil {
				return fmt.Errorf("failed to update lot: %w", err)
			}
		}

		balance := account.Balance.Add(proceeds)
		if balance.GreaterThanOrEqual(MaxBalance) {
			return fmt.Errorf("%w: %s", ErrBalanceLimit, balance)
		}
		if err := tx.UpdateBalance(ctx, userID, balance); err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}

		event := &models.HistoryEvent{
			Type:       models.EventSell,
			Sender:     models.UserParty(userID),
			Receiver:   models.SystemParty(models.Market),
			Symbol:     q.Symbol,
			Amount:     amount,
			UnitValue:  q.Price,
			TotalValue: proceeds,
			CreatedAt:  now,
		}
		if err := tx.AppendHistory(ctx, event); err != nil {
			return fmt.Errorf("failed to record sell: %w", err)
		}

		result = &TradeResult{Symbol: q.Symbol, Amount: amount, UnitPrice: q.Price, Total: proceeds, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Sold shares",
		zap.Uint("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("amount", amount),
		zap.String("price", q.Price.String()),
	)
	return result, nil
}

// EditBalance sets the cash balance. With resetPortfolio all lots and the
// user's history are dropped first, so the new balance becomes the baseline
// for profit calculations.
func (l *Ledger) EditBalance(ctx context.Context, userID uint, newBalance decimal.Decimal, resetPortfolio bool) error {
	return l.setBalance(ctx, userID, newBalance, resetPortfolio, models.Market)
}

// AdminSetBalance is EditBalance issued by an operator; the history row
// names the paper bank as sender.
func (l *Ledger) AdminSetBalance(ctx context.Context, userID uint, newBalance decimal.Decimal, resetPortfolio bool) error {
	return l.setBalance(ctx, userID, newBalance, resetPortfolio, models.PaperBank)
}

func (l *Ledger) setBalance(ctx context.Context, userID uint, newBalance decimal.Decimal, reset bool, issuer models.SystemAccount) error {
	if newBalance.IsNegative() {
		return fmt.Errorf("%w: balance must not be negative", ErrInvalidAmount)
	}
	if !isCents(newBalance) {
		return fmt.Errorf("%w: balance has fractions of a cent", ErrInvalidAmountFormat)
	}
	if newBalance.GreaterThanOrEqual(MaxBalance) {
		return fmt.Errorf("%w: %s", ErrBalanceLimit, newBalance)
	}

	err := l.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := lockAccount(ctx, tx, userID); err != nil {
			return err
		}

		if reset {
			if err := tx.DeleteLots(ctx, userID); err != nil {
				return fmt.Errorf("failed to clear lots: %w", err)
			}
			if err := tx.DeleteHistory(ctx, userID); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
		}

		if err := tx.UpdateBalance(ctx, userID, newBalance); err != nil {
			return fmt.Errorf("failed to set balance: %w", err)
		}

		event := &models.HistoryEvent{
			Type:            models.EventBalanceEdit,
			Sender:          models.SystemParty(issuer),
			Receiver:        models.UserParty(userID),
			Symbol:          models.NotApplicable,
			Amount:          1,
			UnitValue:       newBalance,
			TotalValue:      newBalance,
			BaselineBalance: decimal.NewNullDecimal(newBalance),
			CreatedAt:       l.now(),
		}
		if err := tx.AppendHistory(ctx, event); err != nil {
			return fmt.Errorf("failed to record balance edit: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("Balance edited",
		zap.Uint("user_id", userID),
		zap.String("balance", newBalance.String()),
		zap.Bool("reset", reset),
		zap.String("issuer", string(issuer)),
	)
	return nil
}

// ListHoldings returns the user's lots, oldest first within each symbol.
func (l *Ledger) ListHoldings(ctx context.Context, userID uint) ([]models.Lot, error) {
	if _, err := l.store.GetAccount(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return l.store.ListAllLots(ctx, userID)
}

// DeleteAccount removes the user and everything that references them.
func (l *Ledger) DeleteAccount(ctx context.Context, userID uint) error {
	err := l.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		steps := []struct {
			what string
			fn   func(context.Context, uint) error
		}{
			{"history", tx.DeleteHistory},
			{"lots", tx.DeleteLots},
			{"account", tx.DeleteAccount},
			{"social data", tx.DeleteSocialData},
			{"user", tx.DeleteUser},
		}
		for _, step := range steps {
			if err := step.fn(ctx, userID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("Account deleted", zap.Uint("user_id", userID))
	return nil
}
