package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aaronlmathis/hostwatch/internal/metrics"
	"github.com/aaronlmathis/hostwatch/internal/timeseries"
	"go.uber.org/zap"
)

// SampleHandler is notified after a sample has been stored
type SampleHandler func(clientID string, s Sample)

// Recorder stores agent samples in a time-series store
type Recorder struct {
	logger *zap.Logger
	store  timeseries.Store

	// writeMu orders the latest-timestamp check with the write that follows
	writeMu sync.Mutex

	mu          sync.RWMutex
	hosts       map[string]HostInfo
	subscribers []SampleHandler
}

// NewRecorder creates a recorder backed by store
func NewRecorder(logger *zap.Logger, store timeseries.Store) *Recorder {
	return &Recorder{
		logger: logger,
		store:  store,
		hosts:  make(map[string]HostInfo),
	}
}

// Subscribe registers fn to receive every stored sample. Handlers run on the
// recording goroutine and must not block.
func (r *Recorder) Subscribe(fn SampleHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Record validates s and writes each metric to the host's series at the
// sample's timestamp. Samples must arrive in timestamp order per host: a
// repeat of the newest timestamp is accepted without being stored again and
// an older one fails with ErrStaleSample.
func (r *Recorder) Record(clientID string, s Sample) error {
	if err := s.Validate(); err != nil {
		metrics.RecordRuntimeSample("rejected")
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	// Resolve every series first so a guardrail hit leaves no partial sample
	metricNames := timeseries.AllMetrics()
	targets := make([]*timeseries.Series, len(metricNames))
	for i, metric := range metricNames {
		targets[i] = r.store.Upsert(timeseries.HostKey(clientID, metric))
		if targets[i] == nil {
			metrics.RecordRuntimeSample("rejected")
			return fmt.Errorf("%w: cannot track %s for client %s", ErrSeriesLimit, metric, clientID)
		}
	}

	if last, ok := targets[0].Latest(); ok {
		switch {
		case s.Timestamp == last.Millis():
			metrics.RecordRuntimeSample("duplicate")
			return nil
		case s.Timestamp < last.Millis():
			metrics.RecordRuntimeSample("rejected")
			return fmt.Errorf("%w: timestamp %d is older than %d", ErrStaleSample, s.Timestamp, last.Millis())
		}
	}

	at := time.UnixMilli(s.Timestamp)
	values := s.metricValues()
	for i, metric := range metricNames {
		targets[i].Add(timeseries.NewPoint(at, values[metric]))
	}

	r.mu.Lock()
	info := r.hosts[clientID]
	if s.MemoryTotal > 0 {
		info.MemoryTotal = s.MemoryTotal
	}
	if s.DiskTotal > 0 {
		info.DiskTotal = s.DiskTotal
	}
	r.hosts[clientID] = info
	subscribers := append([]SampleHandler(nil), r.subscribers...)
	r.mu.Unlock()

	metrics.RecordRuntimeSample("accepted")
	for _, fn := range subscribers {
		fn(clientID, s)
	}
	return nil
}

// History returns the aligned samples of clientID since the given time. A
// zero since returns the whole retained window. Unknown hosts yield an
// empty history.
func (r *Recorder) History(clientID string, since time.Time, res timeseries.Resolution) History {
	h := History{
		ClientID:   clientID,
		Resolution: res.String(),
		Host:       r.HostInfo(clientID),
		Timestamps: []int64{},
		Series:     make(map[string][]float64),
	}

	metricNames := timeseries.AllMetrics()
	columns := make(map[string]map[int64]float64, len(metricNames))
	var order []int64
	for i, metric := range metricNames {
		series, ok := r.store.Get(timeseries.HostKey(clientID, metric))
		if !ok {
			return emptyHistory(h)
		}
		points := series.GetSince(since, res)
		col := make(map[int64]float64, len(points))
		for _, p := range points {
			col[p.Millis()] = p.V
		}
		columns[metric] = col
		if i == 0 {
			order = make([]int64, 0, len(points))
			for _, p := range points {
				order = append(order, p.Millis())
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	// Keep only instants every metric has a value for, once each
	for i, ts := range order {
		if i > 0 && ts == order[i-1] {
			continue
		}
		complete := true
		for _, metric := range metricNames {
			if _, ok := columns[metric][ts]; !ok {
				complete = false
				break
			}
		}
		if complete {
			h.Timestamps = append(h.Timestamps, ts)
		}
	}

	for _, metric := range metricNames {
		col := make([]float64, len(h.Timestamps))
		for i, ts := range h.Timestamps {
			col[i] = columns[metric][ts]
		}
		h.Series[metric] = col
	}
	return h
}

func emptyHistory(h History) History {
	for _, metric := range timeseries.AllMetrics() {
		h.Series[metric] = []float64{}
	}
	return h
}

// Latest returns the newest sample of clientID
func (r *Recorder) Latest(clientID string) (Sample, bool) {
	var s Sample
	found := false
	for _, metric := range timeseries.AllMetrics() {
		series, ok := r.store.Get(timeseries.HostKey(clientID, metric))
		if !ok {
			return Sample{}, false
		}
		p, ok := series.Latest()
		if !ok {
			return Sample{}, false
		}
		if !found || p.Millis() > s.Timestamp {
			s.Timestamp = p.Millis()
		}
		found = true
		s.setMetric(metric, p.V)
	}

	info := r.HostInfo(clientID)
	s.MemoryTotal = info.MemoryTotal
	s.DiskTotal = info.DiskTotal
	return s, found
}

// OnlineWindow is how recent the newest sample must be for a host to count
// as online
const OnlineWindow = 60 * time.Second

// Online returns the newest sample of clientID if it is younger than
// OnlineWindow at now
func (r *Recorder) Online(clientID string, now time.Time) (Sample, bool) {
	s, ok := r.Latest(clientID)
	if !ok || now.Sub(time.UnixMilli(s.Timestamp)) >= OnlineWindow {
		return Sample{}, false
	}
	return s, true
}

// HostInfo returns the last reported totals of clientID
func (r *Recorder) HostInfo(clientID string) HostInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hosts[clientID]
}

// Forget drops everything recorded for clientID
func (r *Recorder) Forget(clientID string) {
	removed := r.store.DeleteHost(clientID)

	r.mu.Lock()
	delete(r.hosts, clientID)
	r.mu.Unlock()

	r.logger.Debug("Dropped runtime history", zap.String("clientId", clientID), zap.Int("series", removed))
}

// Run prunes expired points every interval until ctx is cancelled
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Runtime pruner started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Runtime pruner stopped")
			return
		case <-ticker.C:
			r.store.Prune()
		}
	}
}
