package api

import (
	"errors"
	"net/http"

	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/quote"
	"paper-trader-go/internal/repository"
	"paper-trader-go/internal/social"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatus = []struct {
	err    error
	status int
	label  string
}{
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{ledger.ErrInvalidAmountFormat, http.StatusBadRequest, "invalid_amount"},
	{ledger.ErrInvalidSymbol, http.StatusBadRequest, "invalid_symbol"},
	{quote.ErrSymbolNotFound, http.StatusBadRequest, "invalid_symbol"},
	{auth.ErrMissingFields, http.StatusBadRequest, "invalid_request"},
	{auth.ErrPasswordMismatch, http.StatusBadRequest, "invalid_request"},
	{social.ErrSelfRequest, http.StatusBadRequest, "invalid_request"},
	{social.ErrMissingName, http.StatusBadRequest, "invalid_request"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},

	{ledger.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{social.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{social.ErrLeagueNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},

	{auth.ErrUsernameTaken, http.StatusConflict, "conflict"},
	{social.ErrAlreadyFriends, http.StatusConflict, "conflict"},
	{social.ErrRequestExists, http.StatusConflict, "conflict"},
	{social.ErrAlreadyMember, http.StatusConflict, "conflict"},

	{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{ledger.ErrNoSharesOwned, http.StatusUnprocessableEntity, "no_shares_owned"},
	{ledger.ErrInsufficientShares, http.StatusUnprocessableEntity, "insufficient_shares"},
	{ledger.ErrBalanceLimit, http.StatusUnprocessableEntity, "balance_limit"},

	{ledger.ErrQuoteUnavailable, http.StatusBadGateway, "quote_unavailable"},
	{quote.ErrUnavailable, http.StatusBadGateway, "quote_unavailable"},
}

// classify maps an error to its HTTP status and a short metrics label.
func classify(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.label
		}
	}
	return http.StatusInternalServerError, "error"
}

// respondError writes {"error": ...}. Unexpected errors are logged and
// hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, _ := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
