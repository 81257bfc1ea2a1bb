package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/indicators"
	"stocksignal-api/internal/ticker"
)

// DefaultPath is read when no config path is given and CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Environment  string             `yaml:"environment" default:"production" validate:"oneof=development staging production test"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Market       MarketConfig       `yaml:"market"`
	AlphaVantage AlphaVantageConfig `yaml:"alpha_vantage"`
	Cache        CacheConfig        `yaml:"cache"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Indicators   indicators.Periods `yaml:"indicators"`
	Plan         PlanConfig         `yaml:"plan"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s" validate:"gt=0"`
	BodyLimit       int           `yaml:"body_limit" default:"4194304" validate:"gt=0"`
	RateLimit       int           `yaml:"rate_limit" default:"100" validate:"gte=0"`
	AllowOrigins    string        `yaml:"allow_origins" default:"*"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
}

type MarketConfig struct {
	YahooBaseURL       string        `yaml:"yahoo_base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart" validate:"url"`
	UserAgent          string        `yaml:"user_agent" default:"Mozilla/5.0"`
	Range              string        `yaml:"range" default:"6mo" validate:"required"`
	Interval           string        `yaml:"interval" default:"1d" validate:"required"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout" default:"10s" validate:"gt=0"`
	DefaultTicker      string        `yaml:"default_ticker" default:"RELIANCE" validate:"required"`
	PrimarySuffix      string        `yaml:"primary_suffix" default:".NS"`
	AlternateSuffix    string        `yaml:"alternate_suffix" default:".BO"`
	RecognizedSuffixes []string      `yaml:"recognized_suffixes"`
	CatalogPath        string        `yaml:"catalog_path"`
	QuoteEnabled       bool          `yaml:"quote_enabled" default:"true"`
	MaxConcurrent      int           `yaml:"max_concurrent_fetches" default:"4" validate:"gt=0,lte=32"`
}

type AlphaVantageConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"url"`
}

type CacheConfig struct {
	TTL                 time.Duration `yaml:"ttl" default:"15m" validate:"gte=0"`
	FirestoreProject    string        `yaml:"firestore_project"`
	FirestoreCollection string        `yaml:"firestore_collection" default:"market_cache"`
}

type ScoringConfig struct {
	MissingDataPolicy string `yaml:"missing_data_policy" default:"skip" validate:"oneof=skip bearish-default"`
}

type PlanConfig struct {
	EntryLow        float64 `yaml:"entry_low" default:"0.97" validate:"gt=0,ltfield=EntryHigh"`
	EntryHigh       float64 `yaml:"entry_high" default:"0.99" validate:"gt=0"`
	StopStrongBuy   float64 `yaml:"stop_strong_buy" default:"0.95" validate:"gt=0,lt=1"`
	StopCautiousBuy float64 `yaml:"stop_cautious_buy" default:"0.98" validate:"gt=0,lt=1"`
	StopSell        float64 `yaml:"stop_sell" default:"1.02" validate:"gt=1"`
	TargetBuy       float64 `yaml:"target_buy" default:"1.03" validate:"gt=1"`
	TargetSell      float64 `yaml:"target_sell" default:"0.97" validate:"gt=0,lt=1"`
}

// Policy converts the plan section into the multipliers used by the analyzer.
func (p PlanConfig) Policy() analysis.PlanPolicy {
	return analysis.PlanPolicy{
		EntryLow:        p.EntryLow,
		EntryHigh:       p.EntryHigh,
		StopStrongBuy:   p.StopStrongBuy,
		StopCautiousBuy: p.StopCautiousBuy,
		StopSell:        p.StopSell,
		TargetBuy:       p.TargetBuy,
		TargetSell:      p.TargetSell,
	}
}

// MissingDataPolicy returns the parsed scoring policy.
func (c *Config) MissingDataPolicy() analysis.MissingDataPolicy {
	p, err := analysis.ParseMissingDataPolicy(c.Scoring.MissingDataPolicy)
	if err != nil {
		return analysis.PolicySkip
	}
	return p
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

var validate = validator.New()

// Load builds the configuration from struct defaults, the YAML file at path,
// a .env file and the environment, in that order. An empty path falls back to
// CONFIG_PATH and then DefaultPath; only an explicitly named file must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	symbol, ok := ticker.Sanitize(cfg.Market.DefaultTicker)
	if !ok {
		return nil, fmt.Errorf("validate config: invalid default ticker %q", cfg.Market.DefaultTicker)
	}
	cfg.Market.DefaultTicker = symbol
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AlphaVantage.APIKey = getEnv("ALPHA_VANTAGE_KEY", cfg.AlphaVantage.APIKey)
	cfg.Cache.FirestoreProject = getEnv("FIRESTORE_PROJECT_ID", cfg.Cache.FirestoreProject)
	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Market.DefaultTicker = getEnv("DEFAULT_TICKER", cfg.Market.DefaultTicker)
	cfg.Scoring.MissingDataPolicy = strings.ToLower(getEnv("MISSING_DATA_POLICY", cfg.Scoring.MissingDataPolicy))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
