package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "TCS.NS",
        "currency": "INR",
        "exchangeName": "NSI",
        "fullExchangeName": "NSE",
        "longName": "Tata Consultancy Services Limited",
        "regularMarketPrice": 3900.5,
        "previousClose": 3850.0
      },
      "timestamp": [1704067200, 1704153600, 1704240000],
      "indicators": {
        "quote": [{
          "open":   [3800, null, 3880],
          "high":   [3850, 3890, 3910],
          "low":    [3790, 3840, 3870],
          "close":  [3840, 3860, 3900.5],
          "volume": [100000, 120000, 150000]
        }]
      }
    }],
    "error": null
  }
}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPath
}

func TestHistory(t *testing.T) {
	srv, path := newTestServer(t, http.StatusOK, chartBody)
	c := NewClient(WithBaseURL(srv.URL), WithRange("6mo", "1d"))

	h, err := c.History(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Bars) != 2 {
		t.Fatalf("expected incomplete bar to be dropped, got %d bars", len(h.Bars))
	}
	if h.Bars[1].Close != 3900.5 || h.Bars[1].Volume != 150000 {
		t.Errorf("unexpected last bar %+v", h.Bars[1])
	}
	if h.Name != "Tata Consultancy Services Limited" || h.Exchange != "NSE" || h.Currency != "INR" {
		t.Errorf("unexpected meta %+v", h)
	}
	if h.PreviousClose != 3850 {
		t.Errorf("expected previous close 3850, got %v", h.PreviousClose)
	}
	if want := "/TCS.NS?"; len(*path) < len(want) || (*path)[:len(want)] != want {
		t.Errorf("unexpected request path %s", *path)
	}
}

func TestHistory_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, "Too Many Requests", ErrRateLimited},
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, ErrNotFound},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, ErrNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrNotFound},
		{"no complete bars", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[1],"indicators":{"quote":[{"open":[null],"high":[1],"low":[1],"close":[1],"volume":[1]}]}}]}}`, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			_, err := NewClient(WithBaseURL(srv.URL)).History(context.Background(), "XYZ.NS")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHistory_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, "boom")
	_, err := NewClient(WithBaseURL(srv.URL)).History(context.Background(), "TCS.NS")
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited) {
		t.Errorf("expected a generic upstream error, got %v", err)
	}
}

func TestHistory_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(WithBaseURL(srv.URL)).History(ctx, "TCS.NS")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestGetQuote_FromChart(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, chartBody)
	q, err := NewClient(WithBaseURL(srv.URL)).GetQuote(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 3900.5 || q.Source != "yahoo_chart" {
		t.Errorf("unexpected quote %+v", q)
	}
	if q.ChangePercent < 1.31 || q.ChangePercent > 1.32 {
		t.Errorf("unexpected change percent %v", q.ChangePercent)
	}
}

func TestQuoteClient(t *testing.T) {
	c := &QuoteClient{get: func(symbol string) (*finance.Quote, error) {
		return &finance.Quote{
			Symbol:                     symbol,
			ShortName:                  "Infosys",
			FullExchangeName:           "NSE",
			CurrencyID:                 "INR",
			RegularMarketPrice:         1500,
			RegularMarketPreviousClose: 1450,
			RegularMarketVolume:        42,
		}, nil
	}}
	q, err := c.GetQuote(context.Background(), "INFY.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name != "Infosys" || q.Price != 1500 || q.Volume != 42 {
		t.Errorf("unexpected quote %+v", q)
	}

	empty := &QuoteClient{get: func(string) (*finance.Quote, error) { return nil, nil }}
	if _, err := empty.GetQuote(context.Background(), "NONE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for nil quote, got %v", err)
	}
}

func TestQuoteClient_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	c := &QuoteClient{get: func(string) (*finance.Quote, error) {
		<-block
		return nil, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetQuote(ctx, "TCS.NS"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
