package analysis

import (
	"fmt"
	"strings"
)

// MissingDataPolicy decides what a rule does when one of its inputs is nil.
type MissingDataPolicy string

const (
	// PolicySkip drops the rule: no contribution, no rationale entry.
	PolicySkip MissingDataPolicy = "skip"
	// PolicyBearishDefault scores the rule -1 and records why.
	PolicyBearishDefault MissingDataPolicy = "bearish-default"
)

// ParseMissingDataPolicy maps a config string to a policy.
func ParseMissingDataPolicy(s string) (MissingDataPolicy, error) {
	switch MissingDataPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySkip, "":
		return PolicySkip, nil
	case PolicyBearishDefault:
		return PolicyBearishDefault, nil
	default:
		return "", fmt.Errorf("unknown missing data policy %q", s)
	}
}

const (
	rsiBullish = 55.0
	rsiBearish = 45.0
)

// Contribution is the outcome of one rule that fired.
type Contribution struct {
	Rule  string `json:"rule"`
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

// Result is the composite score with its rationale in rule order.
type Result struct {
	Score         int            `json:"score"`
	Rationale     []string       `json:"rationale"`
	Contributions []Contribution `json:"contributions"`
}

// rule evaluates one indicator comparison. ok is false when an input is missing.
type rule struct {
	name string
	eval func(s Snapshot) (c Contribution, fired, ok bool)
}

var rules = []rule{
	{name: "trend", eval: trendRule},
	{name: "ema", eval: emaRule},
	{name: "rsi", eval: rsiRule},
	{name: "macd", eval: macdRule},
	{name: "bollinger", eval: bollingerRule},
	{name: "volume", eval: volumeRule},
}

// Engine scores snapshots. The zero value skips missing data.
type Engine struct {
	Missing MissingDataPolicy
}

// NewEngine creates an Engine with the given policy.
func NewEngine(policy MissingDataPolicy) *Engine {
	return &Engine{Missing: policy}
}

// Score applies the six rules in fixed order. It is a pure function of s.
// Under PolicyBearishDefault every rule with missing inputs scores -1,
// volume included.
func (e *Engine) Score(s Snapshot) Result {
	res := Result{Rationale: []string{}, Contributions: []Contribution{}}
	for _, r := range rules {
		c, fired, ok := r.eval(s)
		if !ok {
			if e.Missing != PolicyBearishDefault {
				continue
			}
			c = Contribution{Delta: -1, Note: fmt.Sprintf("⚠️ %s data unavailable (-1)", ruleLabel(r.name))}
			fired = true
		}
		if !fired {
			continue
		}
		c.Rule = r.name
		res.Score += c.Delta
		res.Rationale = append(res.Rationale, c.Note)
		res.Contributions = append(res.Contributions, c)
	}
	return res
}

func ruleLabel(name string) string {
	switch name {
	case "trend":
		return "SMA trend"
	case "ema":
		return "EMA"
	case "rsi":
		return "RSI"
	case "macd":
		return "MACD"
	case "bollinger":
		return "Bollinger Band"
	default:
		return "Volume"
	}
}

func trendRule(s Snapshot) (Contribution, bool, bool) {
	if s.ShortSMA == nil || s.LongSMA == nil {
		return Contribution{}, false, false
	}
	if *s.ShortSMA > *s.LongSMA {
		return Contribution{Delta: 1, Note: fmt.Sprintf("📈 Short SMA %.2f above long SMA %.2f, uptrend (+1)", *s.ShortSMA, *s.LongSMA)}, true, true
	}
	return Contribution{Delta: -1, Note: fmt.Sprintf("📉 Short SMA %.2f below long SMA %.2f, downtrend (-1)", *s.ShortSMA, *s.LongSMA)}, true, true
}

func emaRule(s Snapshot) (Contribution, bool, bool) {
	if s.Close == nil || s.EMA == nil {
		return Contribution{}, false, false
	}
	if *s.Close > *s.EMA {
		return Contribution{Delta: 1, Note: fmt.Sprintf("📈 Price %.2f above EMA %.2f (+1)", *s.Close, *s.EMA)}, true, true
	}
	return Contribution{Delta: -1, Note: fmt.Sprintf("📉 Price %.2f below EMA %.2f (-1)", *s.Close, *s.EMA)}, true, true
}

func rsiRule(s Snapshot) (Contribution, bool, bool) {
	if s.RSI == nil {
		return Contribution{}, false, false
	}
	rsi := *s.RSI
	switch {
	case rsi > rsiBullish:
		return Contribution{Delta: 1, Note: fmt.Sprintf("💪 RSI %.2f bullish (+1)", rsi)}, true, true
	case rsi < rsiBearish:
		return Contribution{Delta: -1, Note: fmt.Sprintf("😓 RSI %.2f bearish (-1)", rsi)}, true, true
	default:
		return Contribution{Delta: 0, Note: fmt.Sprintf("⚖️ RSI %.2f neutral (0)", rsi)}, true, true
	}
}

func macdRule(s Snapshot) (Contribution, bool, bool) {
	if s.MACD == nil {
		return Contribution{}, false, false
	}
	if *s.MACD > 0 {
		return Contribution{Delta: 1, Note: fmt.Sprintf("📊 MACD %.2f positive (+1)", *s.MACD)}, true, true
	}
	return Contribution{Delta: -1, Note: fmt.Sprintf("📊 MACD %.2f negative (-1)", *s.MACD)}, true, true
}

func bollingerRule(s Snapshot) (Contribution, bool, bool) {
	if s.Close == nil || s.BBUpper == nil || s.BBLower == nil {
		return Contribution{}, false, false
	}
	switch {
	case *s.Close < *s.BBLower:
		return Contribution{Delta: 1, Note: fmt.Sprintf("📉 Price below lower Bollinger Band %.2f, rebound (+1)", *s.BBLower)}, true, true
	case *s.Close > *s.BBUpper:
		return Contribution{Delta: -1, Note: fmt.Sprintf("📈 Price above upper Bollinger Band %.2f, overbought (-1)", *s.BBUpper)}, true, true
	default:
		return Contribution{}, false, true
	}
}

func volumeRule(s Snapshot) (Contribution, bool, bool) {
	if s.Volume == nil || s.VolumeAvg == nil {
		return Contribution{}, false, false
	}
	if *s.Volume > *s.VolumeAvg {
		return Contribution{Delta: 1, Note: fmt.Sprintf("🔊 Volume spike %.0f vs average %.0f (+1)", *s.Volume, *s.VolumeAvg)}, true, true
	}
	return Contribution{}, false, true
}
