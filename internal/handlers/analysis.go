package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"stocksignal-api/internal/catalog"
	"stocksignal-api/internal/models"
	"stocksignal-api/internal/render"
	"stocksignal-api/internal/ticker"
)

// Analyzer is the part of services.Analyzer the handlers use.
type Analyzer interface {
	Analyze(ctx context.Context, raw string) *models.AnalysisResult
	AnalyzeInput(ctx context.Context, in models.TickerInput) *models.AnalysisResult
}

// QuoteFetcher is satisfied by services.MarketDataService.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

type analysisQuery struct {
	Ticker string `query:"ticker" validate:"max=64"`
}

type AnalysisHandler struct {
	analyzer   Analyzer
	quotes     QuoteFetcher
	catalog    *catalog.Catalog
	normalizer ticker.Normalizer
	validate   *validator.Validate
	timeout    time.Duration
	log        zerolog.Logger
}

func NewAnalysisHandler(analyzer Analyzer, quotes QuoteFetcher, cat *catalog.Catalog, normalizer ticker.Normalizer, timeout time.Duration, log zerolog.Logger) *AnalysisHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnalysisHandler{
		analyzer:   analyzer,
		quotes:     quotes,
		catalog:    cat,
		normalizer: normalizer,
		validate:   validator.New(),
		timeout:    timeout,
		log:        log,
	}
}

// Page handles GET / and POST /. Errors are shown on the page, so the status
// is always 200.
func (h *AnalysisHandler) Page(c *fiber.Ctx) error {
	page := render.Page{Markets: h.catalog.All()}

	var (
		raw     string
		analyze bool
	)
	switch c.Method() {
	case fiber.MethodPost:
		raw = c.FormValue("ticker")
		if raw == "" {
			raw = c.FormValue("market")
		}
		analyze = true
	default:
		raw = c.Query("ticker")
		analyze = raw != ""
	}

	if analyze {
		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		defer cancel()

		page.Result = h.analyzer.Analyze(ctx, raw)
		page.Selected = page.Result.Ticker
	}

	return c.Render("index", page)
}

// GetAnalysis handles GET /api/v1/analysis?ticker=
func (h *AnalysisHandler) GetAnalysis(c *fiber.Ctx) error {
	var q analysisQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "Invalid query", err)
	}
	if err := h.validate.Struct(q); err != nil {
		return badRequest(c, "Invalid ticker", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	return writeResult(c, h.analyzer.Analyze(ctx, q.Ticker))
}

// PostAnalysis handles POST /api/v1/analysis
func (h *AnalysisHandler) PostAnalysis(c *fiber.Ctx) error {
	var req models.AnalysisRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body", err)
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "Invalid ticker", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	return writeResult(c, h.analyzer.AnalyzeInput(ctx, req.Ticker))
}

// Markets handles GET /api/v1/markets
func (h *AnalysisHandler) Markets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"markets": h.catalog.All(),
		"count":   h.catalog.Len(),
	})
}

// GetQuote handles GET /api/v1/quotes/:symbol. A bare symbol is quoted on
// the primary exchange, e.g. TCS as TCS.NS.
func (h *AnalysisHandler) GetQuote(c *fiber.Ctx) error {
	symbol, ok := ticker.Sanitize(c.Params("symbol"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Symbol is required",
			Code:  fiber.StatusBadRequest,
		})
	}
	if candidates := h.normalizer.Candidates(symbol); len(candidates) > 0 {
		symbol = candidates[0]
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	q, err := h.quotes.FetchQuote(ctx, symbol)
	if err != nil {
		h.log.Debug().Err(err).Str("ticker", symbol).Msg("quote lookup failed")
		code := fiber.StatusNotFound
		if errors.Is(err, context.DeadlineExceeded) {
			code = fiber.StatusGatewayTimeout
		}
		return c.Status(code).JSON(models.ErrorResponse{
			Error:   "Quote not available",
			Message: err.Error(),
			Code:    code,
		})
	}
	return c.JSON(q)
}

// writeResult maps the result's error kind onto an HTTP status.
func writeResult(c *fiber.Ctx, res *models.AnalysisResult) error {
	return c.Status(statusFor(res.ErrorKind)).JSON(res)
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case "":
		return fiber.StatusOK
	case models.ErrorKindNoData:
		return fiber.StatusNotFound
	case models.ErrorKindRateLimited:
		return fiber.StatusTooManyRequests
	case models.ErrorKindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadGateway
	}
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   msg,
		Message: err.Error(),
		Code:    fiber.StatusBadRequest,
	})
}
