// Package monitor records runtime samples reported by monitoring agents and
// serves them back as aligned history for the dashboard charts.
package monitor

import (
	"errors"
	"fmt"
	"math"

	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

var (
	ErrInvalidSample = errors.New("invalid runtime sample")
	ErrSeriesLimit   = errors.New("series limit reached")
	ErrStaleSample   = errors.New("sample older than the latest recorded")
)

// Sample is one runtime report from an agent. Usage values are absolute
// (GB), rates are per second (network KB/s, disk MB/s) and CPUUsage is a
// fraction in [0, 1].
type Sample struct {
	Timestamp       int64   `json:"timestamp"` // Unix milliseconds
	CPUUsage        float64 `json:"cpuUsage"`
	MemoryUsage     float64 `json:"memoryUsage"`
	DiskUsage       float64 `json:"diskUsage"`
	NetworkUpload   float64 `json:"networkUpload"`
	NetworkDownload float64 `json:"networkDownload"`
	DiskRead        float64 `json:"diskRead"`
	DiskWrite       float64 `json:"diskWrite"`

	// Host totals in GB; zero leaves the last known value in place
	MemoryTotal float64 `json:"memoryTotal,omitempty"`
	DiskTotal   float64 `json:"diskTotal,omitempty"`
}

// Validate rejects samples that cannot be stored or rendered
func (s Sample) Validate() error {
	if s.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp must be positive", ErrInvalidSample)
	}
	for metric, v := range s.metricValues() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidSample, metric)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidSample, metric)
		}
	}
	if s.CPUUsage > 1 {
		return fmt.Errorf("%w: cpuUsage must be a fraction", ErrInvalidSample)
	}
	return nil
}

func (s Sample) metricValues() map[string]float64 {
	return map[string]float64{
		timeseries.MetricCPUUsage:    s.CPUUsage,
		timeseries.MetricMemUsage:    s.MemoryUsage,
		timeseries.MetricDiskUsage:   s.DiskUsage,
		timeseries.MetricNetUpload:   s.NetworkUpload,
		timeseries.MetricNetDownload: s.NetworkDownload,
		timeseries.MetricDiskRead:    s.DiskRead,
		timeseries.MetricDiskWrite:   s.DiskWrite,
	}
}

func (s *Sample) setMetric(metric string, v float64) {
	switch metric {
	case timeseries.MetricCPUUsage:
		s.CPUUsage = v
	case timeseries.MetricMemUsage:
		s.MemoryUsage = v
	case timeseries.MetricDiskUsage:
		s.DiskUsage = v
	case timeseries.MetricNetUpload:
		s.NetworkUpload = v
	case timeseries.MetricNetDownload:
		s.NetworkDownload = v
	case timeseries.MetricDiskRead:
		s.DiskRead = v
	case timeseries.MetricDiskWrite:
		s.DiskWrite = v
	}
}

// HostInfo holds the capacity figures the charts are scaled against
type HostInfo struct {
	MemoryTotal float64 `json:"memory"` // GB
	DiskTotal   float64 `json:"disk"`   // GB
}

// History is the runtime record of one host, column-aligned: every slice in
// Series has the same length as Timestamps and shares its ordering.
type History struct {
	ClientID   string               `json:"clientId"`
	Resolution string               `json:"resolution"`
	Host       HostInfo             `json:"host"`
	Timestamps []int64              `json:"timestamps"`
	Series     map[string][]float64 `json:"series"`
}

// Len returns the number of aligned samples
func (h History) Len() int {
	return len(h.Timestamps)
}

// Values returns the column for metric, or nil if it is not present
func (h History) Values(metric string) []float64 {
	return h.Series[metric]
}
