package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies a history row.
type EventType string

const (
	EventBuy           EventType = "Buy"
	EventSell          EventType = "Sell"
	EventBalanceEdit   EventType = "BalanceEdit"
	EventFriendRequest EventType = "FriendRequest"
)

// NotApplicable is stored as the symbol of events that do not move shares.
const NotApplicable = "N/A"

// HistoryEvent is an append-only record of a balance or position change.
// Rows are never updated. They are only removed in bulk when a portfolio is
// reset or an account is deleted.
type HistoryEvent struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Type       EventType       `gorm:"size:32;not null;index" json:"type"`
	Sender     Party           `gorm:"embedded;embeddedPrefix:sender_" json:"sender"`
	Receiver   Party           `gorm:"embedded;embeddedPrefix:receiver_" json:"receiver"`
	Symbol     string          `gorm:"not null" json:"symbol"`
	Amount     int64           `gorm:"not null" json:"amount"`
	UnitValue  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"unit_value"`
	TotalValue decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_value"`
	// BaselineBalance is only set on BalanceEdit events. It is the balance the
	// user chose to start from and the reference for net profit.
	BaselineBalance decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"baseline_balance"`
	CreatedAt       time.Time           `gorm:"index" json:"created_at"`
}
