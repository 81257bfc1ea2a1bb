package render

import (
	"bytes"
	"strings"
	"testing"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/models"
)

func renderPage(t *testing.T, page Page) string {
	t.Helper()
	e := New()
	if err := e.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := e.Render(&buf, "index", page); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRender_EmptyPage(t *testing.T) {
	out := renderPage(t, Page{Markets: []models.Market{{Symbol: "TCS", Name: "Tata Consultancy Services"}}})

	if !strings.Contains(out, `<option value="TCS">Tata Consultancy Services (TCS)</option>`) {
		t.Errorf("market option missing:\n%s", out)
	}
	if strings.Contains(out, `class="error"`) {
		t.Error("empty page should not show an error")
	}
}

func TestRender_Result(t *testing.T) {
	score := 4
	res := &models.AnalysisResult{
		Ticker:        "TCS.NS",
		CompanyName:   "Tata <Consultancy>",
		CurrentPrice:  analysis.Value(3512.456),
		ChangePercent: analysis.Value(-1.234),
		Score:         &score,
		Verdict:       analysis.StrongBuy,
		Entry:         "Buy between 3407.08 and 3477.33",
		Exit:          "Target 3617.83",
		StopLoss:      "3336.83",
		Rationale:     []string{"✅ Short SMA above Long SMA (+1)"},
		Indicators:    &analysis.Snapshot{Close: analysis.Value(3512.46)},
	}
	out := renderPage(t, Page{
		Markets:  []models.Market{{Symbol: "TCS", Name: "TCS"}},
		Selected: res.Ticker,
		Result:   res,
	})

	for _, want := range []string{
		"Tata &lt;Consultancy&gt;",
		"3512.46",
		"(-1.23%)",
		`class="bearish"`,
		`class="verdict bullish"`,
		"Strong Buy (score 4)",
		"Buy between 3407.08 and 3477.33",
		"Short SMA above Long SMA",
		`<option value="TCS" selected>`,
		"<th>RSI</th><td>unavailable</td>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestRender_Error(t *testing.T) {
	res := &models.AnalysisResult{
		Ticker:    "XYZ",
		Error:     "No data found for XYZ",
		ErrorKind: models.ErrorKindNoData,
	}
	out := renderPage(t, Page{Result: res})

	if !strings.Contains(out, `<div class="error">No data found for XYZ</div>`) {
		t.Errorf("error block missing:\n%s", out)
	}
	if strings.Contains(out, "Entry") {
		t.Error("failed result should not render a plan")
	}
}

func TestRender_LazyLoad(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Render(&buf, "index.html", Page{}); err != nil {
		t.Fatalf("render without Load: %v", err)
	}
}
