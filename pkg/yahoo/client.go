package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stocksignal-api/internal/models"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

var (
	// ErrNotFound means Yahoo has no usable series for the symbol.
	ErrNotFound = errors.New("yahoo: symbol not found")
	// ErrRateLimited means Yahoo answered 429.
	ErrRateLimited = errors.New("yahoo: rate limited")
)

type Client struct {
	http     *resty.Client
	rng      string
	interval string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.http.SetBaseURL(strings.TrimRight(u, "/")) }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithRange sets the chart range and bar interval, e.g. "6mo" and "1d".
func WithRange(rng, interval string) Option {
	return func(c *Client) {
		if rng != "" {
			c.rng = rng
		}
		if interval != "" {
			c.interval = interval
		}
	}
}

func NewClient(opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept", "application/json")

	c := &Client{http: rc, rng: "6mo", interval: "1d"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				Currency            string  `json:"currency"`
				ExchangeName        string  `json:"exchangeName"`
				FullExchangeName    string  `json:"fullExchangeName"`
				LongName            string  `json:"longName"`
				ShortName           string  `json:"shortName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				PreviousClose       float64 `json:"previousClose"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the daily series for symbol. Bars with any missing field
// are dropped; a symbol with no complete bar is reported as ErrNotFound.
func (c *Client) History(ctx context.Context, symbol string) (*models.History, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":          c.rng,
			"interval":       c.interval,
			"includePrePost": "false",
			"events":         "div,splits",
		}).
		Get("/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	default:
		return nil, fmt.Errorf("yahoo finance returned status %d", resp.StatusCode())
	}

	var chart chartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("decode yahoo chart %s: %w", symbol, err)
	}
	if e := chart.Chart.Error; e != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, symbol, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s: empty result", ErrNotFound, symbol)
	}

	result := chart.Chart.Result[0]
	q := result.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, cl, vol := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i), at(q.Volume, i)
		if open == nil || high == nil || low == nil || cl == nil || vol == nil {
			continue
		}
		bars = append(bars, models.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *cl,
			Volume: *vol,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no complete bars", ErrNotFound, symbol)
	}

	meta := result.Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = meta.ExchangeName
	}
	prev := meta.PreviousClose
	if prev == 0 && len(bars) > 1 {
		prev = bars[len(bars)-2].Close
	}

	return &models.History{
		Symbol:        symbol,
		Name:          name,
		Exchange:      exchange,
		Currency:      meta.Currency,
		MarketPrice:   meta.RegularMarketPrice,
		PreviousClose: prev,
		Bars:          bars,
		FetchedAt:     time.Now(),
	}, nil
}

// GetQuote derives a quote from the chart metadata.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	h, err := c.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := h.MarketPrice
	if price == 0 {
		price = h.Bars[len(h.Bars)-1].Close
	}
	return newQuote(symbol, h.Name, h.Exchange, h.Currency, price, h.PreviousClose, int64(h.Bars[len(h.Bars)-1].Volume), "yahoo_chart"), nil
}

func at(s []*float64, i int) *float64 {
	if i >= len(s) {
		return nil
	}
	return s[i]
}

func newQuote(symbol, name, exchange, currency string, price, prevClose float64, volume int64, source string) *models.Quote {
	change := price - prevClose
	changePercent := 0.0
	if prevClose > 0 {
		changePercent = (change / prevClose) * 100
	}
	return &models.Quote{
		Symbol:        symbol,
		Name:          name,
		Exchange:      exchange,
		Currency:      currency,
		Price:         price,
		PreviousClose: prevClose,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		LastUpdated:   time.Now(),
		Source:        source,
	}
}
