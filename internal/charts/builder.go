package charts

import (
	"fmt"
	"time"
)

const (
	// Zoom window shows the newest 5% of the domain.
	zoomStart        = 95
	zoomEnd          = 100
	zoomMinValueSpan = 12
)

// pointerPosition pins the tooltip to the pointer coordinates.
const pointerPosition JSFunc = `function (pt) { return [pt[0], pt[1]]; }`

// axisLabelFormatter is the client-side twin of FormatAxisLabel. The day of
// month is shifted by one; see FormatAxisLabel.
const axisLabelFormatter JSFunc = `function (value) {
    value = new Date(value);
    let time = value.toLocaleTimeString();
    time = time.substring(0, time.length - 3);
    const date = [value.getDate() + 1, value.getMonth() + 1].join('/');
    return time + '\n' + date;
}`

// Builder assembles chart options. The zero value is not usable; use
// NewBuilder.
type Builder struct {
	gradient     GradientFill
	location     *time.Location
	serverLabels bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithGradient replaces the default area fill binding.
func WithGradient(g GradientFill) BuilderOption {
	return func(b *Builder) {
		if g != nil {
			b.gradient = g
		}
	}
}

// WithLocation sets the location used for server-rendered axis labels.
func WithLocation(loc *time.Location) BuilderOption {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// WithServerLabels makes DefaultOption emit preformatted category labels
// instead of raw timestamps plus a renderer-side formatter.
func WithServerLabels() BuilderOption {
	return func(b *Builder) {
		b.serverLabels = true
	}
}

// NewBuilder returns a Builder using EChartsGradient and the local time zone
// unless overridden.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		gradient: EChartsGradient{},
		location: time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder()

// DefaultOption returns a chart skeleton without series, using the default
// builder.
func DefaultOption(name string, dataX []Timestamp) Option {
	return defaultBuilder.DefaultOption(name, dataX)
}

// DefaultOption returns a chart skeleton: axis tooltip, fixed grid margins,
// a categorical time axis, a value axis named name and an inside zoom over
// the newest samples. No series are attached.
func (b *Builder) DefaultOption(name string, dataX []Timestamp) Option {
	xAxis := XAxis{
		Type:        "category",
		BoundaryGap: false,
		Animation:   false,
	}
	if b.serverLabels {
		xAxis.Data = make([]any, len(dataX))
		for i, ts := range dataX {
			xAxis.Data[i] = FormatAxisLabel(ts, b.location)
		}
	} else {
		xAxis.Data = make([]any, len(dataX))
		for i, ts := range dataX {
			xAxis.Data[i] = int64(ts)
		}
		xAxis.AxisLabel.Formatter = axisLabelFormatter
	}

	return Option{
		Tooltip: Tooltip{
			Trigger:         "axis",
			Position:        pointerPosition,
			Confine:         true,
			Padding:         3,
			BackgroundColor: "#FFFFFFE0",
			TextStyle:       TextStyle{FontSize: 13},
		},
		Grid: Grid{
			Left:         "10",
			Right:        "15",
			Bottom:       "0",
			Top:          "30",
			ContainLabel: true,
		},
		XAxis: xAxis,
		YAxis: YAxis{
			Type:        "value",
			Name:        name,
			BoundaryGap: []any{0, "10%"},
		},
		DataZoom: []DataZoom{{
			Type:         "inside",
			Start:        zoomStart,
			End:          zoomEnd,
			MinValueSpan: zoomMinValueSpan,
		}},
	}
}

// FormatAxisLabel renders a sample as "HH:MM\nD/M" in loc. D is the day of
// month plus one, matching the dashboard labels users already read; M is the
// calendar month (1-12).
func FormatAxisLabel(ts Timestamp, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(int64(ts)).In(loc)
	return fmt.Sprintf("%s\n%d/%d", t.Format("15:04"), t.Day()+1, int(t.Month()))
}
