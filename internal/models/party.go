package models

// SystemAccount names a reserved counterparty that is not a user.
type SystemAccount string

const (
	// Market is the counterparty of every buy and sell.
	Market SystemAccount = "MARKET"
	// PaperBank is the issuer of balance edits made by an operator.
	PaperBank SystemAccount = "PAPER_BANK"
)

// Party is one side of a history event: a user or a system account, never both.
type Party struct {
	UserID uint          `gorm:"index" json:"user_id,omitempty"`
	System SystemAccount `gorm:"size:32" json:"system,omitempty"`
}

// UserParty returns the party for a real user.
func UserParty(id uint) Party { return Party{UserID: id} }

// SystemParty returns the party for a reserved system account.
func SystemParty(s SystemAccount) Party { return Party{System: s} }

// IsSystem reports whether the party is a system account.
func (p Party) IsSystem() bool { return p.System != "" }
