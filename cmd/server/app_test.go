package main

import (
	"reflect"
	"testing"

	"stocksignal-api/pkg/alphavantage"
	"stocksignal-api/pkg/yahoo"
)

func TestQuoteSources(t *testing.T) {
	live, chart := yahoo.NewQuoteClient(), yahoo.NewClient()

	tests := []struct {
		name   string
		apiKey string
		want   []string
	}{
		{"without alpha vantage key", "", []string{"yahoo", "yahoo_chart"}},
		{"with alpha vantage key", "demo", []string{"yahoo", "yahoo_chart", "alphavantage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := quoteSources(live, chart, alphavantage.NewClient(tt.apiKey, ""))
			var names []string
			for _, s := range sources {
				names = append(names, s.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("got %v, want %v", names, tt.want)
			}
			if sources[1].Source != chart {
				t.Error("chart client not wired as quote source")
			}
		})
	}
}
