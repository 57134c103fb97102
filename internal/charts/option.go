// Package charts assembles declarative chart configuration objects for the
// dashboard's charting renderer. The JSON field names follow the renderer's
// option schema and must not change.
package charts

// Timestamp is an X-axis sample in Unix milliseconds.
type Timestamp int64

// Colors holds the line color, the gradient start color and the gradient end
// color of a series, in that order.
type Colors [3]string

// Line returns the stroke color.
func (c Colors) Line() string { return c[0] }

// GradientStart returns the fill color at the line.
func (c Colors) GradientStart() string { return c[1] }

// GradientEnd returns the fill color at the bottom of the plot.
func (c Colors) GradientEnd() string { return c[2] }

// SeriesSpec describes one line series. Values must hold one entry per
// X-axis sample; the builder does not check this.
type SeriesSpec struct {
	Name   string
	Values []float64
	Colors Colors
}

// JSFunc is callback source evaluated by the renderer. It is transported as
// a plain JSON string and revived on the client.
type JSFunc string

// Option is the full configuration object handed to the renderer.
type Option struct {
	Tooltip  Tooltip    `json:"tooltip"`
	Grid     Grid       `json:"grid"`
	XAxis    XAxis      `json:"xAxis"`
	YAxis    YAxis      `json:"yAxis"`
	DataZoom []DataZoom `json:"dataZoom"`
	Series   []Series   `json:"series,omitempty"`
}

// Tooltip is the hover box shared by every series of a chart.
type Tooltip struct {
	Trigger         string    `json:"trigger"`
	Position        JSFunc    `json:"position,omitempty"`
	Confine         bool      `json:"confine"`
	Padding         int       `json:"padding"`
	BackgroundColor string    `json:"backgroundColor"`
	TextStyle       TextStyle `json:"textStyle"`
}

// TextStyle sets the tooltip font.
type TextStyle struct {
	FontSize int `json:"fontSize"`
}

// Grid margins are strings because the renderer accepts both pixel counts
// and percentages in these fields.
type Grid struct {
	Left         string `json:"left"`
	Right        string `json:"right"`
	Bottom       string `json:"bottom"`
	Top          string `json:"top"`
	ContainLabel bool   `json:"containLabel"`
}

// XAxis is the category axis of formatted sample times.
type XAxis struct {
	Type        string    `json:"type"`
	BoundaryGap bool      `json:"boundaryGap"`
	Data        []any     `json:"data"`
	Animation   bool      `json:"animation"`
	AxisLabel   AxisLabel `json:"axisLabel"`
}

// AxisLabel formats X-axis tick labels.
type AxisLabel struct {
	Formatter JSFunc `json:"formatter,omitempty"`
}

// YAxis is the value axis; Name carries the unit.
type YAxis struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	BoundaryGap []any  `json:"boundaryGap"`
}

// DataZoom enables mouse-wheel and drag zooming along the X axis.
type DataZoom struct {
	Type         string `json:"type"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	MinValueSpan int    `json:"minValueSpan"`
}

// Series is one rendered line with its gradient fill.
type Series struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Sampling   string    `json:"sampling"`
	ShowSymbol bool      `json:"showSymbol"`
	ItemStyle  ItemStyle `json:"itemStyle"`
	AreaStyle  AreaStyle `json:"areaStyle"`
	Data       []float64 `json:"data"`
}

// ItemStyle colors the line and its legend marker.
type ItemStyle struct {
	Color string `json:"color"`
}

// AreaStyle.Color holds whatever the configured GradientFill produced.
type AreaStyle struct {
	Color any `json:"color"`
}

// Clone returns a copy of o that shares no slices with it.
func (o Option) Clone() Option {
	c := o
	if o.XAxis.Data != nil {
		c.XAxis.Data = append([]any(nil), o.XAxis.Data...)
	}
	if o.YAxis.BoundaryGap != nil {
		c.YAxis.BoundaryGap = append([]any(nil), o.YAxis.BoundaryGap...)
	}
	if o.DataZoom != nil {
		c.DataZoom = append([]DataZoom(nil), o.DataZoom...)
	}
	if o.Series != nil {
		c.Series = make([]Series, len(o.Series))
		for i, s := range o.Series {
			data := make([]float64, len(s.Data))
			copy(data, s.Data)
			s.Data = data
			c.Series[i] = s
		}
	}
	return c
}
