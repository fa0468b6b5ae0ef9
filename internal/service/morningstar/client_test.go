package morningstar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	domrepo "FinValue/internal/domain/repository"
	xhttp "FinValue/pkg/http"
)

func newTestClient(srv *httptest.Server, opts ...xhttp.ClientOption) *Client {
	hc := xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(2 * time.Second)}, opts...)...)
	return New(hc, srv.URL+"/export")
}

func TestKeyRatiosFallsBackAcrossExchanges(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := r.URL.Query().Get("t")
		seen = append(seen, sym)
		if r.URL.Query().Get("order") != "asc" {
			t.Errorf("expected ascending order param")
		}
		if strings.HasPrefix(sym, "XNYS:") {
			_, _ = w.Write([]byte(sampleCSV))
			return
		}
		// not listed: empty body
	}))
	defer srv.Close()

	f, err := newTestClient(srv).KeyRatios(context.Background(), "ibm")
	if err != nil {
		t.Fatalf("key ratios: %v", err)
	}
	if f.Exchange != "XNYS" || f.Ticker != "IBM" {
		t.Fatalf("unexpected exchange/ticker %q %q", f.Exchange, f.Ticker)
	}
	if len(seen) != 2 || seen[0] != "XNAS:IBM" {
		t.Fatalf("unexpected request order %v", seen)
	}
}

func TestKeyRatiosNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("t"), "PINX:") {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv).KeyRatios(context.Background(), "NOPE")
	if !errors.Is(err, domrepo.ErrTickerNotFound) {
		t.Fatalf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestKeyRatiosUpstreamFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv, xhttp.WithRetries(1, time.Millisecond))
	_, err := c.KeyRatios(context.Background(), "AAPL")
	if !errors.Is(err, domrepo.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	// three exchanges, two attempts each
	if got := atomic.LoadInt32(&calls); got != 6 {
		t.Fatalf("expected 6 calls, got %d", got)
	}
}
