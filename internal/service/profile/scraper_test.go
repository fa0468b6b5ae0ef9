package profile

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	domrepo "FinValue/internal/domain/repository"
	xhttp "FinValue/pkg/http"
)

const snapshotPage = `<html><body>
<h2 class="quote-header_ticker-wrapper_company">Example Corp</h2>
<table class="snapshot-table2">
<tr><td>Market Cap</td><td>2.1T</td><td>Beta</td><td>1.24</td></tr>
<tr><td>Shs Outstand</td><td>15.73B</td><td>Dividend</td><td>0.96</td></tr>
</table>
</body></html>`

func TestParseSnapshot(t *testing.T) {
	p, err := ParseSnapshot([]byte(snapshotPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Beta != 1.24 {
		t.Fatalf("expected beta 1.24, got %v", p.Beta)
	}
	if math.Abs(p.Shares-15730) > 1e-6 {
		t.Fatalf("expected 15730 million shares, got %v", p.Shares)
	}
	if p.CompanyName != "Example Corp" {
		t.Fatalf("unexpected company name %q", p.CompanyName)
	}
}

func TestParseSnapshotWithoutFields(t *testing.T) {
	_, err := ParseSnapshot([]byte(`<html><table><tr><td>P/E</td><td>30</td></tr></table></html>`))
	if !errors.Is(err, domrepo.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestParseScaled(t *testing.T) {
	cases := map[string]float64{"1.5": 1.5, "820.5M": 820.5e6, "12K": 12e3, "1,234": 1234}
	for in, want := range cases {
		got, ok := parseScaled(in)
		if !ok || math.Abs(got-want) > 1e-6 {
			t.Fatalf("parseScaled(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := parseScaled("-"); ok {
		t.Fatalf("expected dash to be rejected")
	}
}

func TestScraperFetchesByTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "MSFT" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(snapshotPage))
	}))
	defer srv.Close()

	s := New(xhttp.NewClient(), srv.URL, nil, nil)
	p, err := s.Profile(context.Background(), "msft")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Ticker != "MSFT" || p.Beta != 1.24 {
		t.Fatalf("unexpected profile %+v", p)
	}

	if _, err := s.Profile(context.Background(), "zzzz"); !errors.Is(err, domrepo.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for missing page, got %v", err)
	}
}
