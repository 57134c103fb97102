package timeseries

import (
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.MaxWindow != time.Hour {
			t.Errorf("Expected MaxWindow 1h, got %v", config.MaxWindow)
		}
		if got := time.Duration(config.HiResPoints) * config.HiResStep; got != config.MaxWindow {
			t.Errorf("Expected hi-res ring to span the window, spans %v", got)
		}
		if got := time.Duration(config.LoResPoints) * config.LoResStep; got != config.MaxWindow {
			t.Errorf("Expected lo-res ring to span the window, spans %v", got)
		}
		if config.MaxSeries%len(AllMetrics()) != 0 {
			t.Errorf("Expected MaxSeries to be a whole number of hosts, got %d", config.MaxSeries)
		}
	})

	t.Run("ResolutionFor", func(t *testing.T) {
		config := DefaultConfig()
		config.HiResStep = 10 * time.Second
		config.HiResPoints = 180

		if got := config.HiResSpan(); got != 30*time.Minute {
			t.Fatalf("Expected 30m hi-res span, got %v", got)
		}
		if got := config.ResolutionFor(30 * time.Minute); got != Hi {
			t.Errorf("Expected hi for a window the raw ring covers, got %v", got)
		}
		if got := config.ResolutionFor(31 * time.Minute); got != Lo {
			t.Errorf("Expected lo beyond the raw ring, got %v", got)
		}
	})

	t.Run("ParseResolution", func(t *testing.T) {
		cases := map[string]Resolution{"": Hi, "hi": Hi, "lo": Lo}
		for in, want := range cases {
			got, err := ParseResolution(in)
			if err != nil {
				t.Fatalf("ParseResolution(%q) error: %v", in, err)
			}
			if got != want {
				t.Errorf("ParseResolution(%q) = %v, want %v", in, got, want)
			}
		}

		if _, err := ParseResolution("medium"); err == nil {
			t.Error("Expected error for unknown resolution")
		}
	})

	t.Run("String", func(t *testing.T) {
		if Hi.String() != "hi" || Lo.String() != "lo" {
			t.Errorf("Unexpected resolution names %q %q", Hi, Lo)
		}
	})
}
