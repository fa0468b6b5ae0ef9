package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"FinValue/internal/domain/models"
	drepo "FinValue/internal/domain/repository"
	applogger "FinValue/pkg/logger"

	"github.com/gorilla/websocket"
)

// ErrNoTrade is returned when no trade arrives before the quote deadline,
// which is normal outside market hours.
var ErrNoTrade = errors.New("finnhub: no trade before deadline")

// Client fetches last-trade quotes from the Finnhub WebSocket feed.
type Client struct {
	apiKey       string
	websocketURL string
	timeout      time.Duration
	dialer       *websocket.Dialer
	log          *applogger.Logger
	metrics      drepo.Metrics
}

// New creates a quote client.
func New(apiKey, websocketURL string, timeout time.Duration, l *applogger.Logger, m drepo.Metrics) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		apiKey:       apiKey,
		websocketURL: websocketURL,
		timeout:      timeout,
		dialer:       websocket.DefaultDialer,
		log:          l,
		metrics:      m,
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
	Msg  string    `json:"msg"`
}

// LastQuote subscribes to symbol and returns the first trade received.
func (c *Client) LastQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.websocketURL)
	if err != nil {
		return nil, fmt.Errorf("finnhub url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.apiKey)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.record("error")
		return nil, fmt.Errorf("%w: finnhub connect: %v", drepo.ErrUpstream, err)
	}
	defer conn.Close()

	// unblock ReadMessage when the context ends
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": symbol}); err != nil {
		c.record("error")
		return nil, fmt.Errorf("%w: subscribe %s: %v", drepo.ErrUpstream, symbol, err)
	}
	defer func() {
		_ = conn.WriteJSON(map[string]string{"type": "unsubscribe", "symbol": symbol})
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.record("timeout")
				return nil, fmt.Errorf("%w: %s", ErrNoTrade, symbol)
			}
			c.record("error")
			return nil, fmt.Errorf("%w: finnhub read: %v", drepo.ErrUpstream, err)
		}

		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-JSON frames
			continue
		}
		switch m.Type {
		case "error":
			c.record("error")
			return nil, fmt.Errorf("%w: finnhub: %s", drepo.ErrUpstream, m.Msg)
		case "trade":
		default:
			continue
		}

		for i := len(m.Data) - 1; i >= 0; i-- {
			d := m.Data[i]
			if d.S != symbol || d.P <= 0 {
				continue
			}
			c.record("ok")
			if c.metrics != nil {
				c.metrics.RecordLastPrice(symbol, d.P)
			}
			c.log.Debug("quote received", applogger.String("symbol", symbol), applogger.Float64("price", d.P))
			return &models.Quote{Symbol: symbol, Price: d.P, Timestamp: time.UnixMilli(d.T).UTC()}, nil
		}
	}
}

func (c *Client) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordFetch("quote", outcome)
	}
}
