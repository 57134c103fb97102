package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

func newTestRecorder(t *testing.T) (*Recorder, *timeseries.MemStore) {
	t.Helper()
	store := timeseries.NewMemStore(timeseries.DefaultConfig())
	return NewRecorder(zap.NewNop(), store), store
}

func sampleAt(at time.Time, cpu float64) Sample {
	return Sample{
		Timestamp:       at.UnixMilli(),
		CPUUsage:        cpu,
		MemoryUsage:     3.5,
		DiskUsage:       40,
		NetworkUpload:   12,
		NetworkDownload: 80,
		DiskRead:        1.5,
		DiskWrite:       0.5,
	}
}

func TestSampleValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		mutate  func(*Sample)
		wantErr bool
	}{
		{"valid", func(*Sample) {}, false},
		{"zero timestamp", func(s *Sample) { s.Timestamp = 0 }, true},
		{"negative rate", func(s *Sample) { s.DiskRead = -1 }, true},
		{"cpu above one", func(s *Sample) { s.CPUUsage = 1.5 }, true},
		{"idle host", func(s *Sample) { s.CPUUsage = 0; s.NetworkUpload = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleAt(now, 0.2)
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSample)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordAndHistory(t *testing.T) {
	r, _ := newTestRecorder(t)
	start := time.Now().Add(-time.Minute).Truncate(time.Second)

	for i := 0; i < 5; i++ {
		s := sampleAt(start.Add(time.Duration(i)*5*time.Second), float64(i)/10)
		if i == 0 {
			s.MemoryTotal = 16
			s.DiskTotal = 512
		}
		require.NoError(t, r.Record("c1", s))
	}

	h := r.History("c1", time.Time{}, timeseries.Hi)

	assert.Equal(t, "c1", h.ClientID)
	assert.Equal(t, "hi", h.Resolution)
	require.Equal(t, 5, h.Len())
	assert.Equal(t, start.UnixMilli(), h.Timestamps[0])
	assert.Equal(t, []float64{0, 0.1, 0.2, 0.3, 0.4}, h.Values(timeseries.MetricCPUUsage))
	for _, metric := range timeseries.AllMetrics() {
		assert.Len(t, h.Values(metric), h.Len(), metric)
	}
	assert.Equal(t, HostInfo{MemoryTotal: 16, DiskTotal: 512}, h.Host)
}

func TestHistorySince(t *testing.T) {
	r, _ := newTestRecorder(t)
	start := time.Now().Add(-time.Minute).Truncate(time.Second)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Record("c1", sampleAt(start.Add(time.Duration(i)*10*time.Second), 0.5)))
	}

	h := r.History("c1", start.Add(15*time.Second), timeseries.Hi)

	assert.Equal(t, 2, h.Len())
}

func TestHistoryUnknownClient(t *testing.T) {
	r, _ := newTestRecorder(t)

	h := r.History("nobody", time.Time{}, timeseries.Hi)

	assert.Equal(t, 0, h.Len())
	assert.NotNil(t, h.Timestamps)
	assert.Len(t, h.Series, len(timeseries.AllMetrics()))
}

func TestHistoryDropsIncompleteInstants(t *testing.T) {
	r, store := newTestRecorder(t)
	now := time.Now().Truncate(time.Second)
	require.NoError(t, r.Record("c1", sampleAt(now.Add(-10*time.Second), 0.1)))
	require.NoError(t, r.Record("c1", sampleAt(now.Add(-5*time.Second), 0.2)))

	// A stray CPU point with no companions must not unbalance the columns
	cpu, ok := store.Get(timeseries.HostKey("c1", timeseries.MetricCPUUsage))
	require.True(t, ok)
	cpu.Add(timeseries.NewPoint(now, 0.9))

	h := r.History("c1", time.Time{}, timeseries.Hi)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []float64{0.1, 0.2}, h.Values(timeseries.MetricCPUUsage))
}

func TestRecordDuplicateTimestamp(t *testing.T) {
	r, _ := newTestRecorder(t)
	var notified int
	r.Subscribe(func(string, Sample) { notified++ })
	at := time.Now().Add(-time.Minute).Truncate(time.Second)

	require.NoError(t, r.Record("c1", sampleAt(at, 0.1)))
	require.NoError(t, r.Record("c1", sampleAt(at.Add(5*time.Second), 0.2)))
	require.NoError(t, r.Record("c1", sampleAt(at.Add(5*time.Second), 0.9)))

	h := r.History("c1", time.Time{}, timeseries.Hi)

	assert.Equal(t, []int64{at.UnixMilli(), at.Add(5 * time.Second).UnixMilli()}, h.Timestamps)
	assert.Equal(t, []float64{0.1, 0.2}, h.Values(timeseries.MetricCPUUsage))
	assert.Equal(t, 2, notified)
}

func TestRecordRejectsOutOfOrderSample(t *testing.T) {
	r, _ := newTestRecorder(t)
	at := time.Now().Add(-time.Minute).Truncate(time.Second)

	require.NoError(t, r.Record("c1", sampleAt(at.Add(10*time.Second), 0.2)))
	err := r.Record("c1", sampleAt(at, 0.1))
	require.ErrorIs(t, err, ErrStaleSample)
	require.NoError(t, r.Record("c1", sampleAt(at.Add(15*time.Second), 0.3)))

	h := r.History("c1", time.Time{}, timeseries.Hi)

	assert.Equal(t, []int64{at.Add(10 * time.Second).UnixMilli(), at.Add(15 * time.Second).UnixMilli()}, h.Timestamps)
	assert.Equal(t, []float64{0.2, 0.3}, h.Values(timeseries.MetricCPUUsage))
}

func TestHistoryOrdersAndDedupesTimestamps(t *testing.T) {
	r, store := newTestRecorder(t)
	now := time.Now().Truncate(time.Second)
	first := now.Add(-10 * time.Second)
	second := now.Add(-5 * time.Second)

	// Points written around Record land in ring order, not time order
	for _, metric := range timeseries.AllMetrics() {
		series := store.Upsert(timeseries.HostKey("c1", metric))
		series.Add(timeseries.NewPoint(second, 0.2))
		series.Add(timeseries.NewPoint(first, 0.1))
		series.Add(timeseries.NewPoint(second, 0.2))
	}

	h := r.History("c1", time.Time{}, timeseries.Hi)

	assert.Equal(t, []int64{first.UnixMilli(), second.UnixMilli()}, h.Timestamps)
	for _, metric := range timeseries.AllMetrics() {
		assert.Len(t, h.Values(metric), 2, metric)
	}
}

func TestRecordRejectsInvalidSample(t *testing.T) {
	r, store := newTestRecorder(t)

	err := r.Record("c1", Sample{})

	assert.ErrorIs(t, err, ErrInvalidSample)
	assert.Empty(t, store.Keys())
}

func TestRecordSeriesLimit(t *testing.T) {
	cfg := timeseries.DefaultConfig()
	cfg.MaxSeries = len(timeseries.AllMetrics())
	store := timeseries.NewMemStore(cfg)
	r := NewRecorder(zap.NewNop(), store)
	now := time.Now()

	require.NoError(t, r.Record("c1", sampleAt(now, 0.1)))
	err := r.Record("c2", sampleAt(now, 0.1))

	assert.ErrorIs(t, err, ErrSeriesLimit)
}

func TestLatest(t *testing.T) {
	r, _ := newTestRecorder(t)
	_, ok := r.Latest("c1")
	assert.False(t, ok)

	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, r.Record("c1", sampleAt(now.Add(-5*time.Second), 0.1)))
	last := sampleAt(now, 0.7)
	last.MemoryTotal = 8
	require.NoError(t, r.Record("c1", last))

	got, ok := r.Latest("c1")
	require.True(t, ok)
	assert.Equal(t, last, got)
}

func TestOnline(t *testing.T) {
	r, _ := newTestRecorder(t)
	now := time.Now().Truncate(time.Millisecond)

	_, ok := r.Online("c1", now)
	assert.False(t, ok)

	require.NoError(t, r.Record("c1", sampleAt(now.Add(-10*time.Second), 0.4)))

	s, ok := r.Online("c1", now)
	require.True(t, ok)
	assert.Equal(t, 0.4, s.CPUUsage)

	_, ok = r.Online("c1", now.Add(OnlineWindow))
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	r, _ := newTestRecorder(t)
	var mu sync.Mutex
	var seen []string
	r.Subscribe(func(clientID string, s Sample) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, clientID)
	})

	require.NoError(t, r.Record("c1", sampleAt(time.Now(), 0.1)))
	_ = r.Record("c2", Sample{})

	assert.Equal(t, []string{"c1"}, seen)
}

func TestForget(t *testing.T) {
	r, store := newTestRecorder(t)
	s := sampleAt(time.Now(), 0.1)
	s.MemoryTotal = 4
	require.NoError(t, r.Record("c1", s))

	r.Forget("c1")

	assert.Empty(t, store.Keys())
	assert.Equal(t, HostInfo{}, r.HostInfo("c1"))
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
