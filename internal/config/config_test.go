package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stocksignal-api/internal/analysis"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "PORT", "ENVIRONMENT", "ALPHA_VANTAGE_KEY", "FIRESTORE_PROJECT_ID",
		"LOG_LEVEL", "DEFAULT_TICKER", "MISSING_DATA_POLICY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "{}\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Market.FetchTimeout != 10*time.Second {
		t.Errorf("expected 10s fetch timeout, got %s", cfg.Market.FetchTimeout)
	}
	if cfg.Market.DefaultTicker != "RELIANCE" {
		t.Errorf("unexpected default ticker %s", cfg.Market.DefaultTicker)
	}
	if cfg.Indicators.LongSMA != 30 || cfg.Indicators.Volume != 10 {
		t.Errorf("unexpected indicator periods %+v", cfg.Indicators)
	}
	if cfg.MissingDataPolicy() != analysis.PolicySkip {
		t.Errorf("expected skip policy, got %s", cfg.MissingDataPolicy())
	}
	if cfg.Plan.Policy() != analysis.DefaultPlanPolicy {
		t.Errorf("expected default plan policy, got %+v", cfg.Plan.Policy())
	}
	if !cfg.Market.QuoteEnabled {
		t.Error("expected quote enrichment enabled by default")
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
environment: development
server:
  port: "9000"
market:
  default_ticker: TCS
  fetch_timeout: 3s
scoring:
  missing_data_policy: skip
indicators:
  short_sma: 5
`)
	t.Setenv("PORT", "9100")
	t.Setenv("MISSING_DATA_POLICY", "Bearish-Default")
	t.Setenv("ALPHA_VANTAGE_KEY", "demo")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("env should override port, got %s", cfg.Server.Port)
	}
	if cfg.Market.DefaultTicker != "TCS" {
		t.Errorf("yaml should set default ticker, got %s", cfg.Market.DefaultTicker)
	}
	if cfg.Market.FetchTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %s", cfg.Market.FetchTimeout)
	}
	if cfg.Indicators.ShortSMA != 5 || cfg.Indicators.LongSMA != 30 {
		t.Errorf("expected partial indicator override, got %+v", cfg.Indicators)
	}
	if cfg.MissingDataPolicy() != analysis.PolicyBearishDefault {
		t.Errorf("expected bearish-default, got %s", cfg.MissingDataPolicy())
	}
	if cfg.AlphaVantage.APIKey != "demo" {
		t.Errorf("expected api key from env")
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad policy", "scoring:\n  missing_data_policy: zero\n"},
		{"bad environment", "environment: moon\n"},
		{"long sma not above short", "indicators:\n  short_sma: 30\n  long_sma: 10\n"},
		{"inverted entry zone", "plan:\n  entry_low: 0.99\n  entry_high: 0.97\n"},
		{"bad yaml", "server: [\n"},
		{"bad default ticker", "market:\n  default_ticker: \"T$X\"\n"},
		{"default ticker list", "market:\n  default_ticker: \"['TCS', 'INFY']\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_DefaultTickerSanitized(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_TICKER", " infy ")

	cfg, err := Load(writeConfig(t, "environment: development\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Market.DefaultTicker != "INFY" {
		t.Errorf("expected INFY, got %q", cfg.Market.DefaultTicker)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
