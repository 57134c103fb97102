package timeseries

import (
	"sync"
	"testing"
)

func TestHealthMetrics_Counters(t *testing.T) {
	health := NewHealthMetrics()

	health.IncrementSeriesCount()
	health.IncrementSeriesCount()
	health.DecrementSeriesCount()
	health.RecordPointAdded()
	health.RecordPointAdded()
	health.RecordError()
	health.RecordDroppedPoint()

	snapshot := health.GetSnapshot()
	if snapshot.SeriesCount != 1 {
		t.Errorf("Expected series count 1, got %d", snapshot.SeriesCount)
	}
	if snapshot.TotalPointsAdded != 2 {
		t.Errorf("Expected total points 2, got %d", snapshot.TotalPointsAdded)
	}
	if snapshot.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", snapshot.ErrorCount)
	}
	if snapshot.DroppedPoints != 1 {
		t.Errorf("Expected dropped points 1, got %d", snapshot.DroppedPoints)
	}
}

func TestHealthMetrics_Limits(t *testing.T) {
	health := NewHealthMetrics()
	health.SetLimits(7, 100, 2) // one host, 100 points, 2 dashboards

	for i := 0; i < 7; i++ {
		if !health.CheckSeriesLimit() {
			t.Fatalf("Expected series %d to be allowed", i)
		}
		health.IncrementSeriesCount()
	}
	if health.CheckSeriesLimit() {
		t.Error("Expected series limit check to fail when at limit")
	}

	if !health.CheckPointsLimit(99) {
		t.Error("Expected points limit check to pass below limit")
	}
	if health.CheckPointsLimit(100) {
		t.Error("Expected points limit check to fail at limit")
	}

	health.SetWSClientCount(2)
	if health.CheckWSClientLimit() {
		t.Error("Expected WS client limit check to fail when at limit")
	}
}

func TestHealthSnapshot_GetStatus(t *testing.T) {
	base := HealthSnapshot{
		SeriesCount:      70,
		MaxSeriesCount:   7000,
		WSClientCount:    25,
		MaxWSClients:     500,
		TotalPointsAdded: 1000,
	}

	tests := []struct {
		name   string
		mutate func(*HealthSnapshot)
		status string
	}{
		{"healthy", func(*HealthSnapshot) {}, "healthy"},
		{"series limit", func(s *HealthSnapshot) { s.SeriesCount = 6800 }, "warning: approaching series limit"},
		{"ws client limit", func(s *HealthSnapshot) { s.WSClientCount = 460 }, "warning: approaching WebSocket client limit"},
		{"high drop rate", func(s *HealthSnapshot) { s.DroppedPoints = 150 }, "warning: high drop rate"},
		{"low drop rate", func(s *HealthSnapshot) { s.DroppedPoints = 10 }, "healthy"},
		{"unset limits", func(s *HealthSnapshot) { s.MaxSeriesCount = 0; s.MaxWSClients = 0 }, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := base
			tt.mutate(&snapshot)
			if got := snapshot.GetStatus(); got != tt.status {
				t.Errorf("GetStatus() = %q, want %q", got, tt.status)
			}
			if got := snapshot.IsHealthy(); got != (tt.status == "healthy") {
				t.Errorf("IsHealthy() = %v for status %q", got, tt.status)
			}
		})
	}
}

func TestHealthMetrics_ConcurrentAccess(t *testing.T) {
	health := NewHealthMetrics()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			health.IncrementSeriesCount()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			health.RecordPointAdded()
			health.RecordWSMessage()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			health.GetSnapshot()
		}
	}()
	wg.Wait()

	snapshot := health.GetSnapshot()
	if snapshot.SeriesCount != 100 {
		t.Errorf("Expected series count 100, got %d", snapshot.SeriesCount)
	}
	if snapshot.TotalPointsAdded != 100 {
		t.Errorf("Expected total points 100, got %d", snapshot.TotalPointsAdded)
	}
}
