package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stocksignal-api/internal/models"
)

const DefaultBaseURL = "https://www.alphavantage.co/query"

var (
	ErrNoData      = errors.New("alphavantage: no data")
	ErrRateLimited = errors.New("alphavantage: rate limited")
	ErrNoAPIKey    = errors.New("alphavantage: api key not configured")
)

type Client struct {
	apiKey string
	http   *resty.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type GlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   providerSymbol(symbol),
			"apikey":   c.apiKey,
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("alphavantage quote %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode())
	}

	var quoteResp GlobalQuoteResponse
	if err := json.Unmarshal(resp.Body(), &quoteResp); err != nil {
		return nil, fmt.Errorf("decode alphavantage quote %s: %w", symbol, err)
	}
	if quoteResp.Note != "" || quoteResp.Information != "" {
		return nil, ErrRateLimited
	}
	if quoteResp.GlobalQuote.Symbol == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	gq := quoteResp.GlobalQuote
	price, _ := strconv.ParseFloat(gq.Price, 64)
	change, _ := strconv.ParseFloat(gq.Change, 64)
	prevClose, _ := strconv.ParseFloat(gq.PreviousClose, 64)
	volume, _ := strconv.ParseInt(gq.Volume, 10, 64)
	if prevClose == 0 {
		prevClose = price - change
	}

	changePercent, err := strconv.ParseFloat(strings.TrimSuffix(gq.ChangePercent, "%"), 64)
	if err != nil && prevClose > 0 {
		changePercent = (change / prevClose) * 100
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prevClose,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		LastUpdated:   time.Now(),
		Source:        "alphavantage",
	}, nil
}

// providerSymbol maps Yahoo's Bombay suffix to the one Alpha Vantage expects.
func providerSymbol(symbol string) string {
	if base, ok := strings.CutSuffix(symbol, ".BO"); ok {
		return base + ".BSE"
	}
	return symbol
}
