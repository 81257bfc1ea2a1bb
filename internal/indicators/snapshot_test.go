package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stocksignal-api/internal/models"
)

func linearBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := float64(i + 1)
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSnapshot_LinearUptrend(t *testing.T) {
	c := NewComputer(Talib{}, DefaultPeriods(), zerolog.Nop())
	s := c.Snapshot(linearBars(60))

	checks := []struct {
		name string
		got  *float64
		ok   func(v float64) bool
	}{
		{"close", s.Close, func(v float64) bool { return v == 60 }},
		{"short sma", s.ShortSMA, func(v float64) bool { return v == 55.5 }},
		{"long sma", s.LongSMA, func(v float64) bool { return v == 45.5 }},
		{"ema", s.EMA, func(v float64) bool { return v > 45 && v < 60 }},
		{"rsi", s.RSI, func(v float64) bool { return v > 99 }},
		{"macd", s.MACD, func(v float64) bool { return v > 0 }},
		{"bb upper", s.BBUpper, func(v float64) bool { return v > 60 }},
		{"bb lower", s.BBLower, func(v float64) bool { return v < 50 }},
		{"volume", s.Volume, func(v float64) bool { return v == 1000 }},
		{"volume avg", s.VolumeAvg, func(v float64) bool { return v == 1000 }},
	}
	for _, ch := range checks {
		if ch.got == nil {
			t.Errorf("%s: expected a value", ch.name)
			continue
		}
		if !ch.ok(*ch.got) {
			t.Errorf("%s: unexpected value %v", ch.name, *ch.got)
		}
	}
}

func TestSnapshot_ShortHistory(t *testing.T) {
	c := NewComputer(nil, DefaultPeriods(), zerolog.Nop())
	s := c.Snapshot(linearBars(20))

	if s.LongSMA != nil {
		t.Errorf("expected long SMA to be unavailable, got %v", *s.LongSMA)
	}
	if s.MACD != nil {
		t.Errorf("expected MACD to be unavailable, got %v", *s.MACD)
	}
	for name, v := range map[string]*float64{
		"short sma": s.ShortSMA,
		"ema":       s.EMA,
		"rsi":       s.RSI,
		"bb upper":  s.BBUpper,
		"bb lower":  s.BBLower,
		"volume":    s.VolumeAvg,
	} {
		if v == nil {
			t.Errorf("%s: expected a value with 20 bars", name)
		}
	}
}

func TestSnapshot_NoBars(t *testing.T) {
	s := NewComputer(nil, DefaultPeriods(), zerolog.Nop()).Snapshot(nil)
	for _, f := range s.Fields() {
		if f.Value != nil {
			t.Errorf("%s: expected nil, got %v", f.Name, *f.Value)
		}
	}
}

type nanLibrary struct{ Talib }

func (nanLibrary) RSI(in []float64, period int) ([]float64, error) {
	return []float64{math.NaN()}, nil
}

func (nanLibrary) MACD(in []float64, fast, slow, signal int) ([]float64, error) {
	return nil, ErrLibrary
}

func TestSnapshot_FailingSeriesOnlyAffectsItsField(t *testing.T) {
	s := NewComputer(nanLibrary{}, DefaultPeriods(), zerolog.Nop()).Snapshot(linearBars(60))
	if s.RSI != nil {
		t.Errorf("expected NaN RSI to be unavailable")
	}
	if s.MACD != nil {
		t.Errorf("expected failed MACD to be unavailable")
	}
	if s.ShortSMA == nil || s.LongSMA == nil || s.EMA == nil || s.BBUpper == nil {
		t.Errorf("other indicators should be unaffected: %+v", s)
	}
}

func TestTalib_Guards(t *testing.T) {
	lib := Talib{}
	short := []float64{1, 2, 3}

	if _, err := lib.SMA(short, 10); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("SMA: expected ErrInsufficientData, got %v", err)
	}
	if _, err := lib.RSI([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, 14); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("RSI: expected ErrInsufficientData for exactly period bars, got %v", err)
	}
	if _, _, err := lib.BBands(short, 20, 2); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("BBands: expected ErrInsufficientData, got %v", err)
	}
	if _, err := lib.MACD(make([]float64, 33), 12, 26, 9); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("MACD: expected ErrInsufficientData, got %v", err)
	}
	if _, err := lib.MACD(make([]float64, 60), 26, 12, 9); err == nil {
		t.Errorf("MACD: expected error for inverted periods")
	}
	if _, err := lib.EMA(short, 0); err == nil {
		t.Errorf("EMA: expected error for zero period")
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	out, err := call(func() []float64 { panic("index out of range") })
	if out != nil {
		t.Errorf("expected nil output")
	}
	if !errors.Is(err, ErrLibrary) {
		t.Errorf("expected ErrLibrary, got %v", err)
	}
}
