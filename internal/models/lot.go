package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one purchase batch of a symbol at a given unit price.
// TotalValue is always Amount * UnitValue; use Recompute after touching Amount.
type Lot struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index:idx_lot_owner_symbol;not null" json:"user_id"`
	Symbol      string          `gorm:"index:idx_lot_owner_symbol;not null" json:"symbol"`
	Amount      int64           `gorm:"not null" json:"amount"`
	UnitValue   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"unit_value"`
	TotalValue  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_value"`
	PurchasedAt time.Time       `gorm:"not null" json:"purchased_at"`
}

// Recompute refreshes TotalValue from Amount and UnitValue.
func (l *Lot) Recompute() {
	l.TotalValue = l.UnitValue.Mul(decimal.NewFromInt(l.Amount))
}
