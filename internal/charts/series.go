package charts

// SingleSeries returns a copy of opt carrying one line series, using the
// default builder. opt is not modified.
func SingleSeries(opt Option, spec SeriesSpec) Option {
	return defaultBuilder.SingleSeries(opt, spec)
}

// DoubleSeries returns a copy of opt carrying two independent line series in
// the order given, using the default builder. opt is not modified.
func DoubleSeries(opt Option, names [2]string, data [2][]float64, colors [2]Colors) Option {
	return defaultBuilder.DoubleSeries(opt, names, data, colors)
}

// SingleSeries returns a copy of opt whose series is replaced by spec.
func (b *Builder) SingleSeries(opt Option, spec SeriesSpec) Option {
	out := opt.Clone()
	out.Series = []Series{b.lineSeries(spec)}
	return out
}

// DoubleSeries returns a copy of opt whose series are replaced by the two
// given ones. Nothing is stacked or sorted.
func (b *Builder) DoubleSeries(opt Option, names [2]string, data [2][]float64, colors [2]Colors) Option {
	out := opt.Clone()
	out.Series = []Series{
		b.lineSeries(SeriesSpec{Name: names[0], Values: data[0], Colors: colors[0]}),
		b.lineSeries(SeriesSpec{Name: names[1], Values: data[1], Colors: colors[1]}),
	}
	return out
}

func (b *Builder) lineSeries(spec SeriesSpec) Series {
	data := make([]float64, len(spec.Values))
	copy(data, spec.Values)

	return Series{
		Name:       spec.Name,
		Type:       "line",
		Sampling:   "lttb",
		ShowSymbol: false,
		ItemStyle:  ItemStyle{Color: spec.Colors.Line()},
		AreaStyle: AreaStyle{
			Color: b.gradient.LinearGradient(TopToBottom, []ColorStop{
				{Offset: 0, Color: spec.Colors.GradientStart()},
				{Offset: 1, Color: spec.Colors.GradientEnd()},
			}),
		},
		Data: data,
	}
}
