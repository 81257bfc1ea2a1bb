package indicators

import (
	"math"

	"github.com/rs/zerolog"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/models"
)

// Periods configures the indicator windows.
type Periods struct {
	ShortSMA   int     `yaml:"short_sma" default:"10" validate:"gt=0"`
	LongSMA    int     `yaml:"long_sma" default:"30" validate:"gtfield=ShortSMA"`
	EMA        int     `yaml:"ema" default:"20" validate:"gt=0"`
	RSI        int     `yaml:"rsi" default:"14" validate:"gt=1"`
	MACDFast   int     `yaml:"macd_fast" default:"12" validate:"gt=0"`
	MACDSlow   int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal int     `yaml:"macd_signal" default:"9" validate:"gt=0"`
	BBPeriod   int     `yaml:"bb_period" default:"20" validate:"gt=1"`
	BBDev      float64 `yaml:"bb_dev" default:"2" validate:"gt=0"`
	Volume     int     `yaml:"volume" default:"10" validate:"gt=0"`
}

// DefaultPeriods returns the standard indicator windows.
func DefaultPeriods() Periods {
	return Periods{
		ShortSMA:   10,
		LongSMA:    30,
		EMA:        20,
		RSI:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBDev:      2,
		Volume:     10,
	}
}

// Computer turns a bar series into an analysis.Snapshot.
type Computer struct {
	lib     Library
	periods Periods
	log     zerolog.Logger
}

// NewComputer creates a Computer. A nil lib falls back to Talib.
func NewComputer(lib Library, periods Periods, log zerolog.Logger) *Computer {
	if lib == nil {
		lib = Talib{}
	}
	return &Computer{lib: lib, periods: periods, log: log}
}

// Snapshot computes the latest value of every indicator. A series that
// cannot be computed leaves its field nil; the other fields are unaffected.
func (c *Computer) Snapshot(bars []models.Bar) analysis.Snapshot {
	var snap analysis.Snapshot
	if len(bars) == 0 {
		return snap
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}
	p := c.periods

	snap.Close = latest(closes)
	snap.Volume = latest(volumes)
	snap.ShortSMA = c.last("short_sma", closes, func() ([]float64, error) { return c.lib.SMA(closes, p.ShortSMA) })
	snap.LongSMA = c.last("long_sma", closes, func() ([]float64, error) { return c.lib.SMA(closes, p.LongSMA) })
	snap.EMA = c.last("ema", closes, func() ([]float64, error) { return c.lib.EMA(closes, p.EMA) })
	snap.RSI = c.last("rsi", closes, func() ([]float64, error) { return c.lib.RSI(closes, p.RSI) })
	snap.MACD = c.last("macd", closes, func() ([]float64, error) {
		return c.lib.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	})
	snap.VolumeAvg = c.last("volume_avg", volumes, func() ([]float64, error) { return c.lib.SMA(volumes, p.Volume) })

	upper, lower, err := c.lib.BBands(closes, p.BBPeriod, p.BBDev)
	if err != nil {
		c.log.Debug().Err(err).Str("indicator", "bbands").Int("bars", len(closes)).Msg("indicator unavailable")
	} else {
		snap.BBUpper = latest(upper)
		snap.BBLower = latest(lower)
	}
	return snap
}

func (c *Computer) last(name string, in []float64, fn func() ([]float64, error)) *float64 {
	out, err := fn()
	if err != nil {
		c.log.Debug().Err(err).Str("indicator", name).Int("bars", len(in)).Msg("indicator unavailable")
		return nil
	}
	return latest(out)
}

// latest returns the rounded last element of s, or nil when s is empty or
// the value is not finite.
func latest(s []float64) *float64 {
	if len(s) == 0 {
		return nil
	}
	v := s[len(s)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return analysis.Value(v)
}
