package analysis

// Snapshot holds the latest value of every indicator used by the scoring
// rules. A nil field means the source series was unavailable.
type Snapshot struct {
	ShortSMA  *float64 `json:"shortSma"`
	LongSMA   *float64 `json:"longSma"`
	EMA       *float64 `json:"ema"`
	RSI       *float64 `json:"rsi"`
	MACD      *float64 `json:"macd"`
	BBUpper   *float64 `json:"bbUpper"`
	BBLower   *float64 `json:"bbLower"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
	VolumeAvg *float64 `json:"volumeAvg"`
}

// Value returns a pointer to v, rounded to two decimals.
func Value(v float64) *float64 {
	r := Round2(v)
	return &r
}

// Fields lists the snapshot values by display name in rule order.
func (s Snapshot) Fields() []NamedValue {
	return []NamedValue{
		{Name: "Short SMA", Value: s.ShortSMA},
		{Name: "Long SMA", Value: s.LongSMA},
		{Name: "EMA", Value: s.EMA},
		{Name: "Close", Value: s.Close},
		{Name: "RSI", Value: s.RSI},
		{Name: "MACD", Value: s.MACD},
		{Name: "Bollinger Upper", Value: s.BBUpper},
		{Name: "Bollinger Lower", Value: s.BBLower},
		{Name: "Volume", Value: s.Volume},
		{Name: "Volume Avg", Value: s.VolumeAvg},
	}
}

// NamedValue pairs an indicator name with its optional value.
type NamedValue struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}
