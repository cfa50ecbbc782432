package chart

import (
	"image/color"
	"math"
	"unicode/utf8"
)

// Fixed domain constants of the progress chart.
const (
	// MinScaleMax is the lowest top of the value axis.
	MinScaleMax = 12.0
	// TargetValue is where the dashed target line sits.
	TargetValue = 9.0
	// TickStep and TickMax describe the Y axis ticks 0,2,...,12.
	TickStep = 2
	TickMax  = 12

	maxPadding        = 50.0
	paddingRatio      = 0.08
	titleFontMin      = 14.0
	titleFontRatio    = 0.025
	labelFontMin      = 10.0
	labelFontRatio    = 0.018
	valueFontMin      = 12.0
	valueFontRatio    = 0.02
	rotateLabelOver   = 8
	markerRadius      = 8.0
	markerBorder      = 3.0
	valueLabelOffset  = 15.0
	categoryLabelGap  = 15.0
	tickLabelGap      = 10.0
	axisTitleX        = 20.0
	titleTop          = 10.0
	targetLabelInset  = 10.0
	targetLabelLift   = 5.0
	legendBottom      = 30.0
	legendLeftOfMid   = 80.0
	legendSwatch      = 12.0
	legendTextOffset  = 18.0
	legendEntryMargin = 40.0
)

// Tier buckets a score for marker coloring.
type Tier int

const (
	TierNeedsImprovement Tier = iota
	TierAverage
	TierGood
)

// String returns a stable name for logs and JSON.
func (t Tier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierAverage:
		return "average"
	default:
		return "needs_improvement"
	}
}

// TierOf maps a value to its tier. Lower bounds are inclusive.
func TierOf(v float64) Tier {
	switch {
	case v >= 9:
		return TierGood
	case v >= 6:
		return TierAverage
	default:
		return TierNeedsImprovement
	}
}

// Palette.
var (
	colorBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorAxis       = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	colorGrid       = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	colorText       = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	colorLine       = color.NRGBA{R: 0x00, G: 0x7b, B: 0xff, A: 0xff}
	colorArea       = color.NRGBA{R: 0x00, G: 0x7b, B: 0xff, A: 0x1a}
	colorShadow     = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x33}
	colorBorder     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorGood       = color.NRGBA{R: 0x28, G: 0xa7, B: 0x45, A: 0xff}
	colorAverage    = color.NRGBA{R: 0xff, G: 0xc1, B: 0x07, A: 0xff}
	colorWeak       = color.NRGBA{R: 0xdc, G: 0x35, B: 0x45, A: 0xff}
	colorTarget     = colorGood
	colorError      = colorWeak
)

// Color returns the marker fill for the tier.
func (t Tier) Color() color.NRGBA {
	switch t {
	case TierGood:
		return colorGood
	case TierAverage:
		return colorAverage
	default:
		return colorWeak
	}
}

// TargetColor is the color of the target line and its legend entry.
func TargetColor() color.NRGBA { return colorTarget }

// LineColor is the color of the score polyline and its legend entry.
func LineColor() color.NRGBA { return colorLine }

// ErrorColor is the color of the in-surface error message.
func ErrorColor() color.NRGBA { return colorError }

// Point is one plotted sample.
type Point struct {
	X, Y    float64
	Value   float64
	Label   string
	Tier    Tier
	Rotated bool
}

// Layout holds every derived measurement of a single render. It is computed
// from scratch on each call and never cached.
type Layout struct {
	Width, Height int

	Padding     float64
	ChartWidth  float64
	ChartHeight float64
	MaxValue    float64
	StepX       float64

	TitleFontSize float64
	LabelFontSize float64
	ValueFontSize float64

	Title   string
	TargetY float64
	Points  []Point
}

// HasSeries reports whether series-specific layers (target line, area,
// polyline, markers, labels) are drawn.
func (l *Layout) HasSeries() bool { return len(l.Points) > 0 }

// ValueY converts a value into a surface Y coordinate.
func (l *Layout) ValueY(v float64) float64 {
	return l.Padding + l.ChartHeight - (v/l.MaxValue)*l.ChartHeight
}

// Baseline is the Y coordinate of the X axis.
func (l *Layout) Baseline() float64 { return l.Padding + l.ChartHeight }

// Title formats the chart heading for a series.
func Title(seriesName string) string { return seriesName + " Progress Chart" }

// ComputeLayout derives the layout for a width x height surface. labels and
// values must already have equal length.
func ComputeLayout(width, height int, labels []string, values []float64, seriesName string) Layout {
	w := float64(width)
	h := float64(height)

	l := Layout{
		Width:         width,
		Height:        height,
		Padding:       math.Min(w*paddingRatio, maxPadding),
		MaxValue:      maxValue(values),
		TitleFontSize: math.Max(titleFontMin, w*titleFontRatio),
		LabelFontSize: math.Max(labelFontMin, w*labelFontRatio),
		ValueFontSize: math.Max(valueFontMin, w*valueFontRatio),
		Title:         Title(seriesName),
	}
	l.ChartWidth = w - 2*l.Padding
	l.ChartHeight = h - 2*l.Padding
	l.TargetY = l.ValueY(TargetValue)

	if len(labels) == 0 || len(values) == 0 {
		return l
	}

	l.StepX = l.ChartWidth / float64(max(len(labels)-1, 1))
	l.Points = make([]Point, len(values))
	for i, v := range values {
		l.Points[i] = Point{
			X:       l.Padding + float64(i)*l.StepX,
			Y:       l.ValueY(v),
			Value:   v,
			Label:   labels[i],
			Tier:    TierOf(v),
			Rotated: utf8.RuneCountInString(labels[i]) > rotateLabelOver,
		}
	}
	return l
}

// maxValue returns max(values..., 12). Non-finite values are ignored here and
// surface later as non-finite point coordinates.
func maxValue(values []float64) float64 {
	m := MinScaleMax
	for _, v := range values {
		if v > m && !math.IsInf(v, 1) {
			m = v
		}
	}
	return m
}
