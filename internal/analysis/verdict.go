package analysis

// Verdict is the recommendation label derived from a score.
type Verdict string

const (
	StrongBuy    Verdict = "Strong Buy"
	CautiousBuy  Verdict = "Cautious Buy"
	Neutral      Verdict = "Neutral"
	CautiousSell Verdict = "Cautious Sell"
	StrongSell   Verdict = "Strong Sell"
)

// thresholds is evaluated top to bottom, first match wins.
var thresholds = []struct {
	match   func(score int) bool
	verdict Verdict
}{
	{func(s int) bool { return s >= 3 }, StrongBuy},
	{func(s int) bool { return s >= 1 && s <= 2 }, CautiousBuy},
	{func(s int) bool { return s <= -3 }, StrongSell},
	{func(s int) bool { return s >= -2 && s <= -1 }, CautiousSell},
	{func(s int) bool { return s == 0 }, Neutral},
}

// Classify maps a score to a verdict. Every integer matches exactly one band.
func Classify(score int) Verdict {
	for _, t := range thresholds {
		if t.match(score) {
			return t.verdict
		}
	}
	return Neutral
}

// Bullish reports whether v recommends buying.
func (v Verdict) Bullish() bool {
	return v == StrongBuy || v == CautiousBuy
}

// Bearish reports whether v recommends selling.
func (v Verdict) Bearish() bool {
	return v == StrongSell || v == CautiousSell
}
