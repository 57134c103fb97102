// Package dashboard turns a host's runtime history into the chart options
// rendered on the host detail page.
package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/charts"
	"github.com/aaronlmathis/hostwatch/internal/metrics"
	"github.com/aaronlmathis/hostwatch/internal/monitor"
	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

var ErrUnknownPanel = errors.New("unknown panel")

const (
	PanelCPU     = "cpu"
	PanelMemory  = "memory"
	PanelNetwork = "network"
	PanelDisk    = "disk"
)

const bytesPerGB = 1 << 30

// Palettes: line color, gradient start, gradient end
var (
	cpuColors      = charts.Colors{"#72c4fe", "#72d5fe", "#2b6fd733"}
	memoryColors   = charts.Colors{"#6be6a3", "#2fda7e", "#08514433"}
	uploadColors   = charts.Colors{"#f6b66e", "#ffd29c", "#fddfc000"}
	downloadColors = charts.Colors{"#79c7ff", "#3cabf3", "#4ab2ff00"}
	readColors     = charts.Colors{"#d2d2d2", "#d5d5d5", "#d5d5d500"}
	writeColors    = charts.Colors{"#ff8c8c", "#ff9f9f", "#ffcccc00"}
)

type panelBuilder func(b *charts.Builder, h monitor.History, x []charts.Timestamp) charts.Option

var panels = map[string]panelBuilder{
	PanelCPU: func(b *charts.Builder, h monitor.History, x []charts.Timestamp) charts.Option {
		percent := scale(h.Values(timeseries.MetricCPUUsage), 100)
		return b.SingleSeries(b.DefaultOption("%", x), charts.SeriesSpec{
			Name:   "CPU Usage",
			Values: percent,
			Colors: cpuColors,
		})
	},
	PanelMemory: func(b *charts.Builder, h monitor.History, x []charts.Timestamp) charts.Option {
		return b.SingleSeries(b.DefaultOption(memoryAxisName(h.Host), x), charts.SeriesSpec{
			Name:   "Memory",
			Values: h.Values(timeseries.MetricMemUsage),
			Colors: memoryColors,
		})
	},
	PanelNetwork: func(b *charts.Builder, h monitor.History, x []charts.Timestamp) charts.Option {
		return b.DoubleSeries(b.DefaultOption("KB/s", x),
			[2]string{"Upload", "Download"},
			[2][]float64{h.Values(timeseries.MetricNetUpload), h.Values(timeseries.MetricNetDownload)},
			[2]charts.Colors{uploadColors, downloadColors},
		)
	},
	PanelDisk: func(b *charts.Builder, h monitor.History, x []charts.Timestamp) charts.Option {
		return b.DoubleSeries(b.DefaultOption("MB/s", x),
			[2]string{"Read", "Write"},
			[2][]float64{h.Values(timeseries.MetricDiskRead), h.Values(timeseries.MetricDiskWrite)},
			[2]charts.Colors{readColors, writeColors},
		)
	},
}

// Panels returns the panel names in display order
func Panels() []string {
	return []string{PanelCPU, PanelMemory, PanelNetwork, PanelDisk}
}

// Service assembles chart options from runtime histories
type Service struct {
	logger  *zap.Logger
	builder *charts.Builder
}

// NewService creates a panel service. opts configure the chart builder.
func NewService(logger *zap.Logger, opts ...charts.BuilderOption) *Service {
	return &Service{
		logger:  logger,
		builder: charts.NewBuilder(opts...),
	}
}

// WithBuilder returns a copy of the service using different builder options,
// e.g. server-rendered labels for a single request.
func (s *Service) WithBuilder(opts ...charts.BuilderOption) *Service {
	return &Service{logger: s.logger, builder: charts.NewBuilder(opts...)}
}

// Build returns the chart option of one panel
func (s *Service) Build(name string, h monitor.History) (charts.Option, error) {
	build, ok := panels[name]
	if !ok {
		return charts.Option{}, fmt.Errorf("%w: %q", ErrUnknownPanel, name)
	}

	start := time.Now()
	opt := build(s.builder, h, timestamps(h))
	metrics.RecordChartBuilt(name, time.Since(start))

	s.logger.Debug("Built chart",
		zap.String("panel", name),
		zap.String("clientId", h.ClientID),
		zap.Int("samples", h.Len()))
	return opt, nil
}

// BuildAll returns every panel keyed by name
func (s *Service) BuildAll(h monitor.History) map[string]charts.Option {
	out := make(map[string]charts.Option, len(panels))
	for _, name := range Panels() {
		opt, _ := s.Build(name, h)
		out[name] = opt
	}
	return out
}

func timestamps(h monitor.History) []charts.Timestamp {
	out := make([]charts.Timestamp, len(h.Timestamps))
	for i, ts := range h.Timestamps {
		out[i] = charts.Timestamp(ts)
	}
	return out
}

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

// memoryAxisName labels the memory axis in GB, with the host total when the
// agent has reported one.
func memoryAxisName(host monitor.HostInfo) string {
	if host.MemoryTotal <= 0 {
		return "GB"
	}
	return fmt.Sprintf("GB / %s", humanize.IBytes(uint64(host.MemoryTotal*bytesPerGB)))
}
