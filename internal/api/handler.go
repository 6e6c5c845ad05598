package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/currency"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/metrics"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/quote"
	"paper-trader-go/internal/social"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Portfolio is the ledger surface used by the handlers.
type Portfolio interface {
	Buy(ctx context.Context, userID uint, symbol string, amount int64) (*ledger.TradeResult, error)
	Sell(ctx context.Context, userID uint, symbol string, amount int64) (*ledger.TradeResult, error)
	EditBalance(ctx context.Context, userID uint, newBalance decimal.Decimal, resetPortfolio bool) error
	ComputePortfolioSnapshot(ctx context.Context, userID uint) (*ledger.Snapshot, error)
	ListHoldings(ctx context.Context, userID uint) ([]models.Lot, error)
	ListHistory(ctx context.Context, userID uint) ([]ledger.HistoryEntry, error)
	DeleteAccount(ctx context.Context, userID uint) error
}

// Accounts registers and authenticates users.
type Accounts interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	Profile(ctx context.Context, userID uint) (*models.User, *models.Account, error)
}

// Social manages friends and leagues.
type Social interface {
	SendFriendRequest(ctx context.Context, senderID uint, receiverUsername string) (social.RequestOutcome, error)
	ListFriends(ctx context.Context, userID uint) ([]social.Friend, error)
	ListRequests(ctx context.Context, userID uint) ([]social.IncomingRequest, error)
	CreateLeague(ctx context.Context, ownerID uint, name, description string) (*models.League, error)
	JoinLeague(ctx context.Context, userID, leagueID uint) error
	ListLeagues(ctx context.Context, userID uint) ([]models.League, error)
}

type Handler struct {
	portfolio Portfolio
	accounts  Accounts
	social    Social
	quotes    quote.Provider
	tokens    *auth.TokenManager
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewHandler(portfolio Portfolio, accounts Accounts, socialSvc Social, quotes quote.Provider, tokens *auth.TokenManager, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		portfolio: portfolio,
		accounts:  accounts,
		social:    socialSvc,
		quotes:    quotes,
		tokens:    tokens,
		metrics:   m,
		logger:    logger.Named("api"),
	}
}

// NewRouter builds the gin engine with middleware, health, metrics and the API.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(h.logger), gin.Recovery(), h.metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
		}
		api.GET("/quote", h.getQuote)

		private := api.Group("", AuthMiddleware(h.tokens, h.logger))
		{
			private.GET("/portfolio", h.getPortfolio)
			private.GET("/holdings", h.getHoldings)
			private.GET("/history", h.getHistory)
			private.POST("/trades/buy", h.buy)
			private.POST("/trades/sell", h.sell)
			private.POST("/balance", h.editBalance)
			private.GET("/settings", h.getSettings)
			private.DELETE("/account", h.deleteAccount)

			private.GET("/friends", h.listFriends)
			private.POST("/friends", h.addFriend)
			private.GET("/requests", h.listRequests)
			private.GET("/leagues", h.listLeagues)
			private.POST("/leagues", h.createLeague)
			private.POST("/leagues/:id/join", h.joinLeague)
		}
	}
}

// flexAmount accepts both JSON numbers and strings.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = flexAmount(n.String())
	return nil
}

type registerRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tradeRequest struct {
	Symbol string     `json:"symbol" binding:"required"`
	Amount flexAmount `json:"amount"`
}

type balanceRequest struct {
	Amount         flexAmount `json:"amount"`
	ResetPortfolio bool       `json:"reset_portfolio"`
}

type friendRequest struct {
	Username string `json:"username" binding:"required"`
}

type leagueRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), auth.RegisterRequest(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.issueToken(c, http.StatusOK, user)
}

func (h *Handler) getQuote(c *gin.Context) {
	symbol := quote.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	q, err := h.quotes.Lookup(c.Request.Context(), symbol)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":        q.Symbol,
		"price":         q.Price,
		"price_display": currency.USD(q.Price),
	})
}

func (h *Handler) getPortfolio(c *gin.Context) {
	snap, err := h.portfolio.ComputePortfolioSnapshot(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"portfolio": snap,
		"display": gin.H{
			"balance":            currency.USD(snap.Balance),
			"net_value":          currency.USD(snap.NetValue),
			"net_profit":         currency.USD(snap.NetProfit),
			"net_profit_percent": currency.Percent(snap.NetProfitPercent),
		},
	})
}

func (h *Handler) getHoldings(c *gin.Context) {
	lots, err := h.portfolio.ListHoldings(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": lots})
}

func (h *Handler) getHistory(c *gin.Context) {
	entries, err := h.portfolio.ListHistory(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *Handler) buy(c *gin.Context) {
	h.trade(c, "buy", h.portfolio.Buy)
}

func (h *Handler) sell(c *gin.Context) {
	h.trade(c, "sell", h.portfolio.Sell)
}

type tradeFunc func(ctx context.Context, userID uint, symbol string, amount int64) (*ledger.TradeResult, error)

func (h *Handler) trade(c *gin.Context, side string, fn tradeFunc) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	amount, err := ledger.ParseShareAmount(string(req.Amount))
	if err != nil {
		h.metrics.ObserveTrade(side, "invalid_amount")
		h.respondError(c, err)
		return
	}

	res, err := fn(c.Request.Context(), currentUser(c), req.Symbol, amount)
	if err != nil {
		_, label := classify(err)
		h.metrics.ObserveTrade(side, label)
		h.respondError(c, err)
		return
	}
	h.metrics.ObserveTrade(side, "ok")
	c.JSON(http.StatusOK, gin.H{
		"trade":           res,
		"total_display":   currency.USD(res.Total),
		"balance_display": currency.USD(res.Balance),
	})
}

func (h *Handler) editBalance(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	balance, err := ledger.ParseBalance(string(req.Amount))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.portfolio.EditBalance(c.Request.Context(), currentUser(c), balance, req.ResetPortfolio); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "balance_display": currency.USD(balance)})
}

func (h *Handler) getSettings(c *gin.Context) {
	user, account, err := h.accounts.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": gin.H{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"username":   user.Username,
		},
		"balance":         account.Balance,
		"balance_display": currency.USD(account.Balance),
	})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	if err := h.portfolio.DeleteAccount(c.Request.Context(), currentUser(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listFriends(c *gin.Context) {
	friends, err := h.social.ListFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *Handler) addFriend(c *gin.Context) {
	var req friendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.social.SendFriendRequest(c.Request.Context(), currentUser(c), req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusCreated
	if outcome == social.RequestAccepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"result": outcome})
}

func (h *Handler) listRequests(c *gin.Context) {
	reqs, err := h.social.ListRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *Handler) listLeagues(c *gin.Context) {
	leagues, err := h.social.ListLeagues(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leagues": leagues})
}

func (h *Handler) createLeague(c *gin.Context) {
	var req leagueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	league, err := h.social.CreateLeague(c.Request.Context(), currentUser(c), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"league": league})
}

func (h *Handler) joinLeague(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league id"})
		return
	}

	if err := h.social.JoinLeague(c.Request.Context(), currentUser(c), uint(id)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"league_id": id})
}
