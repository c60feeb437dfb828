package model

import "time"

// ClientConfig is the user configuration of the analysis client. Zero values
// mean the component default is used.
type ClientConfig struct {
	ServerURL       string
	ServerTimeout   time.Duration
	StartPerMinute  int
	StatusPerMinute int
	RateLimitBurst  int

	PollInterval time.Duration
	Timeout      time.Duration
	// PollRetries is nil when not configured, 0 is a valid value.
	PollRetries *int

	// AnalysisParams are the user defaults of each analysis, on top of the built in ones.
	AnalysisParams map[AnalysisKind]AnalysisParams
}
