package indicators

import (
	"errors"
	"fmt"

	talib "github.com/markcheno/go-talib"
)

var (
	// ErrInsufficientData is returned when a series is shorter than the
	// indicator's lookback.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrLibrary wraps a failure raised inside the indicator library.
	ErrLibrary = errors.New("indicator library failure")
)

// Library is the indicator math used to build snapshots. Every method
// returns a series aligned with its input.
type Library interface {
	SMA(in []float64, period int) ([]float64, error)
	EMA(in []float64, period int) ([]float64, error)
	RSI(in []float64, period int) ([]float64, error)
	MACD(in []float64, fast, slow, signal int) ([]float64, error)
	BBands(in []float64, period int, dev float64) (upper, lower []float64, err error)
}

// Talib implements Library on top of go-talib. go-talib indexes past the end
// of short inputs, so every call checks the lookback first and recovers.
type Talib struct{}

func (Talib) SMA(in []float64, period int) ([]float64, error) {
	if err := need(in, period); err != nil {
		return nil, err
	}
	return call(func() []float64 { return talib.Sma(in, period) })
}

func (Talib) EMA(in []float64, period int) ([]float64, error) {
	if err := need(in, period); err != nil {
		return nil, err
	}
	return call(func() []float64 { return talib.Ema(in, period) })
}

func (Talib) RSI(in []float64, period int) ([]float64, error) {
	if err := need(in, period+1); err != nil {
		return nil, err
	}
	return call(func() []float64 { return talib.Rsi(in, period) })
}

func (Talib) MACD(in []float64, fast, slow, signal int) ([]float64, error) {
	if fast >= slow {
		return nil, fmt.Errorf("macd fast period %d must be below slow period %d", fast, slow)
	}
	if err := need(in, slow+signal-1); err != nil {
		return nil, err
	}
	return call(func() []float64 {
		line, _, _ := talib.Macd(in, fast, slow, signal)
		return line
	})
}

func (Talib) BBands(in []float64, period int, dev float64) ([]float64, []float64, error) {
	if err := need(in, period); err != nil {
		return nil, nil, err
	}
	var lower []float64
	upper, err := call(func() []float64 {
		u, _, l := talib.BBands(in, period, dev, dev, talib.SMA)
		lower = l
		return u
	})
	if err != nil {
		return nil, nil, err
	}
	return upper, lower, nil
}

func need(in []float64, n int) error {
	if n < 1 {
		return fmt.Errorf("invalid period %d", n)
	}
	if len(in) < n {
		return fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(in), n)
	}
	return nil
}

func call(fn func() []float64) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrLibrary, r)
		}
	}()
	return fn(), nil
}
