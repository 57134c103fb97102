package timeseries

import (
	"fmt"
	"time"
)

// Resolution defines the resolution of time series data
type Resolution int

const (
	Hi Resolution = iota // Raw agent samples
	Lo                   // Averaged bins of LoResStep
)

// String returns the query-string form of the resolution
func (r Resolution) String() string {
	switch r {
	case Hi:
		return "hi"
	case Lo:
		return "lo"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// ParseResolution parses "hi" or "lo"
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "hi", "":
		return Hi, nil
	case "lo":
		return Lo, nil
	default:
		return Hi, fmt.Errorf("unknown resolution %q", s)
	}
}

// Config holds configuration for time series storage
type Config struct {
	// Maximum time window to keep data
	MaxWindow time.Duration

	// Agents report roughly every HiResStep
	HiResStep   time.Duration
	HiResPoints int

	LoResStep   time.Duration
	LoResPoints int

	// Guardrails
	MaxSeries          int
	MaxPointsPerSeries int
	MaxWSClients       int
}

// HiResSpan is how far back the raw ring reaches when agents report every
// HiResStep
func (c Config) HiResSpan() time.Duration {
	return time.Duration(c.HiResPoints) * c.HiResStep
}

// ResolutionFor picks raw points for windows the raw ring covers and the
// averaged bins for longer ones
func (c Config) ResolutionFor(window time.Duration) Resolution {
	if window <= c.HiResSpan() {
		return Hi
	}
	return Lo
}

// DefaultConfig returns the default configuration: one hour of history,
// matching the window the dashboard charts show.
func DefaultConfig() Config {
	return Config{
		MaxWindow:          60 * time.Minute,
		HiResStep:          5 * time.Second,
		HiResPoints:        720, // 60 minutes / 5 seconds
		LoResStep:          time.Minute,
		LoResPoints:        60,
		MaxSeries:          7000, // 1000 hosts * 7 metrics
		MaxPointsPerSeries: 10000,
		MaxWSClients:       500,
	}
}
