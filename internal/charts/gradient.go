package charts

// Direction is the gradient vector in the plot's unit square.
type Direction struct {
	X, Y, X2, Y2 float64
}

// TopToBottom runs from the line down to the X axis.
var TopToBottom = Direction{X: 0, Y: 0, X2: 0, Y2: 1}

// ColorStop is one stop of a gradient; Offset is in [0, 1].
type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// GradientFill builds the renderer-specific value of an area fill.
type GradientFill interface {
	LinearGradient(dir Direction, stops []ColorStop) any
}

// LinearGradient is the serialized form the renderer accepts in place of its
// graphic.LinearGradient object.
type LinearGradient struct {
	Type       string      `json:"type"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	X2         float64     `json:"x2"`
	Y2         float64     `json:"y2"`
	ColorStops []ColorStop `json:"colorStops"`
	Global     bool        `json:"global"`
}

// EChartsGradient is the default GradientFill.
type EChartsGradient struct{}

func (EChartsGradient) LinearGradient(dir Direction, stops []ColorStop) any {
	return LinearGradient{
		Type:       "linear",
		X:          dir.X,
		Y:          dir.Y,
		X2:         dir.X2,
		Y2:         dir.Y2,
		ColorStops: append([]ColorStop(nil), stops...),
	}
}
