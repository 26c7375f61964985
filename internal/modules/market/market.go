package market

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redispkg "github.com/strategiz/core/internal/pkg/redis"
	"github.com/strategiz/core/internal/pkg/response"
)

var ErrUnknownSymbol = errors.New("market: unknown symbol")

// Quote is a point-in-time ticker snapshot.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change24h"`
	AsOf      time.Time `json:"asOf"`
}

// Provider produces fresh quotes. The cache sits in front of it.
type Provider interface {
	Fetch(ctx context.Context, symbol string) (*Quote, error)
}

// Service serves quotes cache-aside from redis so a burst of dashboard
// polls costs one provider call per TTL window.
type Service struct {
	client   *redispkg.Client
	provider Provider
	ttl      time.Duration
}

func NewService(client *redispkg.Client, provider Provider, ttl time.Duration) *Service {
	return &Service{client: client, provider: provider, ttl: ttl}
}

func cacheKey(symbol string) string { return "market:ticker:" + symbol }

func (s *Service) GetTicker(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrUnknownSymbol
	}

	var cached Quote
	ok, err := s.client.GetJSON(ctx, cacheKey(symbol), &cached)
	if err == nil && ok {
		return &cached, nil
	}

	quote, err := s.provider.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	// Cache failures are not fetch failures.
	_ = s.client.SetJSON(ctx, cacheKey(symbol), quote, s.ttl)
	return quote, nil
}

// DemoProvider serves random-walk quotes for demo accounts and local
// development, no upstream feed required.
type DemoProvider struct {
	mu     sync.Mutex
	prices map[string]float64
}

func NewDemoProvider() *DemoProvider {
	return &DemoProvider{
		prices: map[string]float64{
			"BTC-USD": 64000,
			"ETH-USD": 3100,
			"SOL-USD": 140,
			"AAPL":    220,
			"SPY":     560,
		},
	}
}

func (p *DemoProvider) Fetch(_ context.Context, symbol string) (*Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	drift := (rand.Float64() - 0.5) * 0.01
	price = price * (1 + drift)
	p.prices[symbol] = price

	return &Quote{
		Symbol:    symbol,
		Price:     price,
		Change24h: drift * 100,
		AsOf:      time.Now(),
	}, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/market", authMW)
	g.GET("/ticker/:symbol", h.ticker)
}

func (h *Handler) ticker(c *gin.Context) {
	quote, err := h.svc.GetTicker(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		if errors.Is(err, ErrUnknownSymbol) {
			response.NotFoundMsg(c, "unknown symbol")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, quote)
}
