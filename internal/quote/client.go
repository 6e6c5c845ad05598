package quote

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paper-trader-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrSymbolNotFound means the provider has no usable price for the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnavailable means the provider could not be reached or failed.
	ErrUnavailable = errors.New("quote provider unavailable")
)

// Quote is the latest known price of a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Provider looks up current prices.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// Client fetches daily history CSVs and reports the last adjusted close.
// It implements Provider.
type Client struct {
	client       *resty.Client
	userAgent    string
	lookbackDays int
	maxRetries   int
	logger       *zap.Logger
	limiter      *rate.Limiter
	now          func() time.Time
}

// ensure Client implements the interface
var _ Provider = (*Client)(nil)

// NewClient creates a quote client from configuration.
func NewClient(cfg *config.Quote, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}

	return &Client{
		client:       client,
		userAgent:    cfg.UserAgent,
		lookbackDays: lookback,
		maxRetries:   cfg.MaxRetries,
		logger:       logger.Named("quote"),
		limiter:      rate.NewLimiter(limit, burst),
		now:          time.Now,
	}
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup returns the latest adjusted close of symbol rounded to cents.
func (c *Client) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	end := c.now()
	start := end.AddDate(0, 0, -c.lookbackDays)

	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(start.Unix(), 10),
			"period2":              strconv.FormatInt(end.Unix(), 10),
			"interval":             "1d",
			"events":               "history",
			"includeAdjustedClose": "true",
		}).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", c.userAgent).
		SetCookie(&http.Cookie{Name: "session", Value: uuid.NewString()})

	resp, err := c.doRequest(ctx, http.MethodGet, "/v7/finance/download/"+url.PathEscape(symbol), req)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", symbol, err)
	}

	price, err := lastAdjustedClose(resp.Body())
	if err != nil {
		c.logger.Debug("Unusable quote payload", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("failed to look up %s: %w", symbol, ErrSymbolNotFound)
	}

	return &Quote{Symbol: symbol, Price: price}, nil
}

// doRequest handles the request execution with rate limiting and, when
// configured, retries on throttling, server and network errors.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	attempts := c.maxRetries + 1

	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter wait failed: %v", ErrUnavailable, err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("path", path))
		resp, err = req.Execute(method, path)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			switch {
			case statusCode == http.StatusTooManyRequests:
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case statusCode >= 500:
				shouldRetry = true
			default:
				// 4xx: the provider does not know the symbol
				return nil, ErrSymbolNotFound
			}
			err = fmt.Errorf("status %s", resp.Status())
		} else {
			shouldRetry = true
		}

		if !shouldRetry || i == attempts-1 {
			break
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Quote request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}

	c.logger.Warn("Quote request failed", zap.String("path", path), zap.Int("attempts", attempts), zap.Error(err))
	return nil, fmt.Errorf("%w: request failed after %d attempt(s): %v", ErrUnavailable, attempts, err)
}

// lastAdjustedClose reads "Date,Open,High,Low,Close,Adj Close,Volume" rows and
// returns the last row's adjusted close rounded to two decimals.
func lastAdjustedClose(body []byte) (decimal.Decimal, error) {
	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) < 2 {
		return decimal.Zero, errors.New("no quote rows")
	}

	column := -1
	for i, name := range records[0] {
		if strings.TrimSpace(name) == "Adj Close" {
			column = i
			break
		}
	}
	if column < 0 {
		return decimal.Zero, errors.New("missing Adj Close column")
	}

	last := records[len(records)-1]
	if column >= len(last) {
		return decimal.Zero, errors.New("short quote row")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(last[column]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", last[column], err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price)
	}
	return price.Round(2), nil
}
