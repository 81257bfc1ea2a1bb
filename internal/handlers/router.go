package handlers

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stocksignal-api/internal/config"
	"stocksignal-api/internal/models"
	"stocksignal-api/internal/render"
)

// RouterOptions configures NewApp. A nil AccessLog disables request logging;
// a nil Gatherer leaves /metrics unmounted.
type RouterOptions struct {
	Server    config.ServerConfig
	Version   string
	AccessLog io.Writer
	Gatherer  prometheus.Gatherer
}

// NewApp builds the Fiber application with middleware and routes.
func NewApp(opts RouterOptions, analysis *AnalysisHandler, health *HealthHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		StrictRouting: true,
		CaseSensitive: true,
		ServerHeader:  "StockSignal",
		AppName:       "StockSignal " + opts.Version,
		ReadTimeout:   opts.Server.ReadTimeout,
		WriteTimeout:  opts.Server.WriteTimeout,
		BodyLimit:     opts.Server.BodyLimit,
		ErrorHandler:  CustomErrorHandler,
		Views:         render.New(),
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			Output: opts.AccessLog,
		}))
	}
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))
	if opts.Server.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.Server.RateLimit,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded. Please try again later.",
				})
			},
		}))
	}

	// Routes
	app.Get("/", analysis.Page)
	app.Post("/", analysis.Page)

	app.Get("/health", health.Health)
	app.Get("/health/ready", health.Ready)
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := app.Group("/api/v1")
	v1.Get("/analysis", analysis.GetAnalysis)
	v1.Post("/analysis", analysis.PostAnalysis)
	v1.Get("/markets", analysis.Markets)
	v1.Get("/quotes/:symbol", analysis.GetQuote)
	v1.Post("/admin/refresh", health.RefreshCache)

	return app
}

// CustomErrorHandler handles Fiber errors
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
		Code:    code,
	})
}
