package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stocksignal-api/internal/analysis"
	"stocksignal-api/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	cardStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1).
		Width(72)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Width(16)

	bullishStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	bearishStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	neutralStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444"))
)

func verdictStyle(v analysis.Verdict) lipgloss.Style {
	switch {
	case v.Bullish():
		return bullishStyle
	case v.Bearish():
		return bearishStyle
	default:
		return neutralStyle
	}
}

func num(v *float64) string {
	if v == nil {
		return analysis.Unavailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// formatResult renders one analysis as a bordered card.
func formatResult(res *models.AnalysisResult) string {
	title := res.Ticker
	if res.CompanyName != "" {
		title = res.CompanyName + " (" + res.Ticker + ")"
	}

	if res.Failed() {
		return cardStyle.Render(titleStyle.Render(title) + "\n" + errorStyle.Render(res.Error))
	}

	lines := []string{titleStyle.Render(title)}
	if res.FallbackUsed {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("input %q not usable, showing %s", res.Input, res.Ticker)))
	}

	price := num(res.CurrentPrice)
	if res.ChangePercent != nil {
		price += fmt.Sprintf(" (%+.2f%%)", *res.ChangePercent)
	}
	score := 0
	if res.Score != nil {
		score = *res.Score
	}

	lines = append(lines,
		row("Price", price),
		row("Verdict", verdictStyle(res.Verdict).Render(fmt.Sprintf("%s (score %d)", res.Verdict, score))),
		row("Entry", res.Entry),
		row("Exit", res.Exit),
		row("Stop-loss", res.StopLoss),
		"",
	)
	lines = append(lines, res.Rationale...)

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// formatMarkets lists the catalog; quotes may be nil.
func formatMarkets(markets []models.Market, quotes map[string]*models.Quote) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d markets", len(markets))))
	b.WriteString("\n")

	for _, m := range markets {
		line := row(m.Symbol, m.Name)
		if quotes != nil {
			price := analysis.Unavailable
			if q, ok := quotes[m.Symbol]; ok {
				price = fmt.Sprintf("%.2f %s", q.Price, q.Currency)
			}
			line += "  " + labelStyle.Render(price)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
