package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"github.com/shopspring/decimal"
)

// HistoryEntry is a history event with both parties resolved to display names.
type HistoryEntry struct {
	ID         uint             `json:"id"`
	Type       models.EventType `json:"type"`
	Sender     string           `json:"sender"`
	Receiver   string           `json:"receiver"`
	Symbol     string           `json:"symbol"`
	Amount     int64            `json:"amount"`
	UnitValue  decimal.Decimal  `json:"unit_value"`
	TotalValue decimal.Decimal  `json:"total_value"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ListHistory returns every event the user took part in, oldest first.
func (l *Ledger) ListHistory(ctx context.Context, userID uint) ([]HistoryEntry, error) {
	if _, err := l.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	events, err := l.store.ListHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var ids []uint
	seen := make(map[uint]bool)
	for _, e := range events {
		for _, p := range []models.Party{e.Sender, e.Receiver} {
			if !p.IsSystem() && !seen[p.UserID] {
				seen[p.UserID] = true
				ids = append(ids, p.UserID)
			}
		}
	}
	names, err := l.store.UsernamesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, HistoryEntry{
			ID:         e.ID,
			Type:       e.Type,
			Sender:     displayName(e.Sender, names),
			Receiver:   displayName(e.Receiver, names),
			Symbol:     e.Symbol,
			Amount:     e.Amount,
			UnitValue:  e.UnitValue,
			TotalValue: e.TotalValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return entries, nil
}

func displayName(p models.Party, names map[uint]string) string {
	if p.IsSystem() {
		return string(p.System)
	}
	if name, ok := names[p.UserID]; ok {
		return name
	}
	return fmt.Sprintf("user #%d", p.UserID)
}
