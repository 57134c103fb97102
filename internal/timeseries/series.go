package timeseries

import (
	"sync"
	"time"
)

// Series holds one metric of one host at two resolutions
type Series struct {
	mu     sync.RWMutex
	config Config
	health *HealthMetrics

	hi ring
	lo ring

	// Downsampling state for the open lo-res bin
	lastBin  time.Time
	binSum   float64
	binCount int
}

// NewSeries creates a new Series with the given configuration
func NewSeries(config Config) *Series {
	return &Series{
		config: config,
		hi:     newRing(config.HiResPoints),
		lo:     newRing(config.LoResPoints),
	}
}

// NewSeriesWithHealth creates a new Series with health metrics tracking
func NewSeriesWithHealth(config Config, health *HealthMetrics) *Series {
	s := NewSeries(config)
	s.health = health
	return s
}

// Add appends a point. Points beyond the per-series guardrail are dropped.
func (s *Series) Add(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.health != nil {
		if !s.health.CheckPointsLimit(s.hi.len() + s.lo.len()) {
			s.health.RecordDroppedPoint()
			return
		}
		s.health.RecordPointAdded()
	}

	s.hi.push(p)
	s.addToLo(p)
}

// addToLo averages points into LoResStep bins; a bin is written once the
// first point of the next bin arrives.
func (s *Series) addToLo(p Point) {
	binStart := p.T.Truncate(s.config.LoResStep)

	if s.lastBin.IsZero() {
		s.lastBin = binStart
		s.binSum = p.V
		s.binCount = 1
		return
	}

	if binStart.Equal(s.lastBin) {
		s.binSum += p.V
		s.binCount++
		return
	}

	if s.binCount > 0 {
		s.lo.push(Point{T: s.lastBin, V: s.binSum / float64(s.binCount)})
	}
	s.lastBin = binStart
	s.binSum = p.V
	s.binCount = 1
}

// GetSince returns all points since the given time for the specified resolution
func (s *Series) GetSince(since time.Time, res Resolution) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notBefore := time.Now().Add(-s.config.MaxWindow)
	switch res {
	case Hi:
		return s.hi.since(since, notBefore)
	case Lo:
		return s.lo.since(since, notBefore)
	default:
		return nil
	}
}

// GetAll returns all points within the max window for the specified resolution
func (s *Series) GetAll(res Resolution) []Point {
	return s.GetSince(time.Time{}, res)
}

// Latest returns the newest raw point
func (s *Series) Latest() (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hi.last()
}

// Len returns the number of raw points held
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hi.len()
}

// Prune removes points older than the configured max window
func (s *Series) Prune() {
	s.PruneBefore(time.Now().Add(-s.config.MaxWindow))
}

// PruneBefore removes points older than cutoff
func (s *Series) PruneBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hi.dropBefore(cutoff)
	s.lo.dropBefore(cutoff)
}
