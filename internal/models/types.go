package models

import (
	"time"

	"stocksignal-api/internal/analysis"
)

// AnalysisRequest represents the incoming analysis request
type AnalysisRequest struct {
	Ticker TickerInput `json:"ticker"`
}

// Bar is one daily OHLCV row
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// History is the daily series for a resolved symbol
type History struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	MarketPrice   float64   `json:"marketPrice,omitempty"`
	PreviousClose float64   `json:"previousClose,omitempty"`
	Bars          []Bar     `json:"bars"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Quote represents the current market data for a ticker
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previousClose"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	LastUpdated   time.Time `json:"lastUpdated"`
	Source        string    `json:"source"` // "yahoo", "yahoo_chart" or "alphavantage"
}

// ErrorKind classifies a failed analysis
type ErrorKind string

const (
	ErrorKindNoData      ErrorKind = "no_data"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindUpstream    ErrorKind = "upstream"
)

// AnalysisResult is the full outcome of analysing one ticker. Any optional
// field may be absent; a failed analysis carries only the error fields.
type AnalysisResult struct {
	Input         string                  `json:"input"`
	Ticker        string                  `json:"ticker"`
	FallbackUsed  bool                    `json:"fallbackUsed"`
	CompanyName   string                  `json:"companyName,omitempty"`
	Exchange      string                  `json:"exchange,omitempty"`
	Currency      string                  `json:"currency,omitempty"`
	CurrentPrice  *float64                `json:"currentPrice,omitempty"`
	PreviousClose *float64                `json:"previousClose,omitempty"`
	ChangePercent *float64                `json:"changePercent,omitempty"`
	QuoteSource   string                  `json:"quoteSource,omitempty"`
	Indicators    *analysis.Snapshot      `json:"indicators,omitempty"`
	Rationale     []string                `json:"rationale,omitempty"`
	Contributions []analysis.Contribution `json:"contributions,omitempty"`
	Score         *int                    `json:"score,omitempty"`
	Verdict       analysis.Verdict        `json:"verdict,omitempty"`
	Entry         string                  `json:"entry,omitempty"`
	Exit          string                  `json:"exit,omitempty"`
	StopLoss      string                  `json:"stopLoss,omitempty"`
	Plan          *analysis.Plan          `json:"plan,omitempty"`
	Bars          int                     `json:"bars,omitempty"`
	Error         string                  `json:"error,omitempty"`
	ErrorKind     ErrorKind               `json:"errorKind,omitempty"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}

// Failed reports whether the analysis produced an error instead of a verdict
func (r *AnalysisResult) Failed() bool {
	return r.ErrorKind != ""
}

// Market is one entry of the selectable market list
type Market struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
