package timeseries

import "time"

// Point represents a single time-series data point
type Point struct {
	T time.Time `json:"t"` // Timestamp
	V float64   `json:"v"` // Value
}

// NewPoint creates a new Point with the given timestamp and value
func NewPoint(t time.Time, v float64) Point {
	return Point{T: t, V: v}
}

// NewPointMillis creates a Point from a Unix millisecond timestamp as sent by
// monitoring agents
func NewPointMillis(ms int64, v float64) Point {
	return Point{T: time.UnixMilli(ms), V: v}
}

// IsZero returns true if the point is the zero value
func (p Point) IsZero() bool {
	return p.T.IsZero() && p.V == 0
}

// Millis returns the timestamp in Unix milliseconds
func (p Point) Millis() int64 {
	return p.T.UnixMilli()
}
