package ledger

import "errors"

var (
	ErrInvalidSymbol       = errors.New("invalid stock symbol")
	ErrQuoteUnavailable    = errors.New("quote service unavailable")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidAmountFormat = errors.New("amount must be numeric")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoSharesOwned       = errors.New("no shares owned")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrUserNotFound        = errors.New("user not found")
	ErrBalanceLimit        = errors.New("balance exceeds the supported maximum")
)
