package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLastQuoteReturnsLatestTradeForSymbol(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil || sub["symbol"] != "AAPL" {
			t.Errorf("unexpected subscribe %v %v", sub, err)
			return
		}
		_ = conn.WriteJSON(map[string]string{"type": "ping"})
		_ = conn.WriteJSON(map[string]interface{}{
			"type": "trade",
			"data": []map[string]interface{}{
				{"s": "MSFT", "p": 400.0, "t": 1700000000000},
				{"s": "AAPL", "p": 189.5, "t": 1700000000000},
				{"s": "AAPL", "p": 190.25, "t": 1700000001000},
			},
		})
		_, _, _ = conn.ReadMessage()
	})
	defer srv.Close()

	c := New("key", wsURL(srv), 2*time.Second, nil, nil)
	q, err := c.LastQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Price != 190.25 || q.Symbol != "AAPL" {
		t.Fatalf("unexpected quote %+v", q)
	}
	if q.Timestamp.Unix() != 1700000001 {
		t.Fatalf("unexpected timestamp %v", q.Timestamp)
	}
}

func TestLastQuoteTimesOutWithoutTrades(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
		time.Sleep(300 * time.Millisecond)
	})
	defer srv.Close()

	c := New("key", wsURL(srv), 100*time.Millisecond, nil, nil)
	if _, err := c.LastQuote(context.Background(), "AAPL"); !errors.Is(err, ErrNoTrade) {
		t.Fatalf("expected ErrNoTrade, got %v", err)
	}
}
