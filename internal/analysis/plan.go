package analysis

import "fmt"

// Unavailable is shown wherever a value could not be derived.
const Unavailable = "unavailable"

// PlanPolicy holds the multipliers applied to the latest close.
type PlanPolicy struct {
	EntryLow        float64 `json:"entryLow"`
	EntryHigh       float64 `json:"entryHigh"`
	StopStrongBuy   float64 `json:"stopStrongBuy"`
	StopCautiousBuy float64 `json:"stopCautiousBuy"`
	StopSell        float64 `json:"stopSell"`
	TargetBuy       float64 `json:"targetBuy"`
	TargetSell      float64 `json:"targetSell"`
}

// DefaultPlanPolicy is the policy used when none is configured.
var DefaultPlanPolicy = PlanPolicy{
	EntryLow:        0.97,
	EntryHigh:       0.99,
	StopStrongBuy:   0.95,
	StopCautiousBuy: 0.98,
	StopSell:        1.02,
	TargetBuy:       1.03,
	TargetSell:      0.97,
}

// Plan is the trade plan for a verdict. Numeric fields are nil when unavailable.
type Plan struct {
	Available bool     `json:"available"`
	EntryLow  *float64 `json:"entryLow,omitempty"`
	EntryHigh *float64 `json:"entryHigh,omitempty"`
	StopLoss  *float64 `json:"stopLoss,omitempty"`
	Target    *float64 `json:"target,omitempty"`

	Entry        string `json:"entry"`
	Exit         string `json:"exit"`
	StopLossText string `json:"stopLossText"`
}

// DerivePlan computes entry, stop-loss and target levels from the latest
// close. A nil close yields a plan where every field is unavailable.
func DerivePlan(v Verdict, lastClose *float64, p PlanPolicy) Plan {
	plan := Plan{Entry: Unavailable, Exit: Unavailable, StopLossText: Unavailable}
	if lastClose == nil {
		return plan
	}
	c := *lastClose
	plan.Available = true

	switch {
	case v.Bullish():
		lo, hi := scale(c, p.EntryLow), scale(c, p.EntryHigh)
		plan.EntryLow, plan.EntryHigh = &lo, &hi
		plan.Entry = fmt.Sprintf("Buy between %.2f and %.2f", lo, hi)

		mult := p.StopCautiousBuy
		if v == StrongBuy {
			mult = p.StopStrongBuy
		}
		plan.StopLoss = ptr(scale(c, mult))
		plan.Target = ptr(scale(c, p.TargetBuy))
	case v.Bearish():
		plan.Entry = fmt.Sprintf("Sell near %.2f", Round2(c))
		plan.StopLoss = ptr(scale(c, p.StopSell))
		plan.Target = ptr(scale(c, p.TargetSell))
	default:
		plan.Entry = "Wait for confirmation"
		plan.Target = ptr(scale(c, p.TargetBuy))
	}

	if plan.StopLoss != nil {
		plan.StopLossText = fmt.Sprintf("%.2f", *plan.StopLoss)
	}
	if plan.Target != nil {
		plan.Exit = fmt.Sprintf("Target %.2f", *plan.Target)
	}
	return plan
}

func ptr(v float64) *float64 { return &v }
