package services

import "time"

// Recorder receives pipeline measurements. *metrics.Metrics implements it.
type Recorder interface {
	AnalysisCompleted(outcome string, score *int, d time.Duration)
	FetchAttempt(source, outcome string)
	CacheLookup(layer string, hit bool)
	IndicatorUnavailable(name string)
}

type nopRecorder struct{}

func (nopRecorder) AnalysisCompleted(string, *int, time.Duration) {}
func (nopRecorder) FetchAttempt(string, string)                   {}
func (nopRecorder) CacheLookup(string, bool)                      {}
func (nopRecorder) IndicatorUnavailable(string)                   {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
