package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"paper-trader-go/internal/quote"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec

	// Ledger metrics
	tradeCount   *prometheus.CounterVec
	quoteLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"handler", "method", "status"},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		tradeCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Trades by side and outcome",
			},
			[]string{"side", "outcome"},
		),
		quoteLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_lookups_total",
				Help:      "Quote provider lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Middleware records duration and count per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(handler, c.Request.Method, status).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(handler, c.Request.Method, status).Inc()
	}
}

// ObserveTrade counts a buy or sell attempt. outcome is a short label such
// as "ok" or "insufficient_funds".
func (m *Metrics) ObserveTrade(side, outcome string) {
	m.tradeCount.WithLabelValues(side, outcome).Inc()
}

// ObserveQuote counts a quote lookup.
func (m *Metrics) ObserveQuote(outcome string) {
	m.quoteLookups.WithLabelValues(outcome).Inc()
}

// InstrumentQuotes wraps p so every lookup, from any caller, is counted.
func (m *Metrics) InstrumentQuotes(p quote.Provider) quote.Provider {
	return &instrumentedProvider{next: p, metrics: m}
}

type instrumentedProvider struct {
	next    quote.Provider
	metrics *Metrics
}

func (p *instrumentedProvider) Lookup(ctx context.Context, symbol string) (*quote.Quote, error) {
	q, err := p.next.Lookup(ctx, symbol)
	p.metrics.ObserveQuote(quoteOutcome(err))
	return q, err
}

func quoteOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, quote.ErrSymbolNotFound):
		return "invalid_symbol"
	case errors.Is(err, quote.ErrUnavailable):
		return "quote_unavailable"
	default:
		return "error"
	}
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
