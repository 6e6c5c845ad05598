package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the cash side of a user's ledger. There is exactly one per user.
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}
