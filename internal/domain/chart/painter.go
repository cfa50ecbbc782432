package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

const errorMessage = "Error loading chart"

// legendEntry is one swatch + caption of the legend.
type legendEntry struct {
	color color.NRGBA
	label string
}

var legendEntries = []legendEntry{
	{color: colorLine, label: "Score Line"},
	{color: colorTarget, label: targetCaption},
}

const targetCaption = "Target (9 marks)"

// painter issues the drawing commands of one render against a gg context.
type painter struct {
	dc    *gg.Context
	fonts *fontSet
}

// clear wipes the surface and fills it with the opaque background.
func (p *painter) clear() {
	p.dc.SetColor(color.Transparent)
	p.dc.Clear()
	p.dc.SetColor(colorBackground)
	p.dc.DrawRectangle(0, 0, float64(p.dc.Width()), float64(p.dc.Height()))
	p.dc.Fill()
}

// paint runs the layered drawing steps. A panic from the backend is turned
// into ErrRenderFailure; whatever was drawn before it stays on the surface.
func (p *painter) paint(l *Layout) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRenderFailure, rec)
		}
	}()

	fonts, err := loadFonts()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	p.fonts = fonts

	if err := checkFinite("layout", l.Padding, l.ChartWidth, l.ChartHeight, l.MaxValue); err != nil {
		return err
	}

	p.axes(l)
	p.ticks(l)
	p.axisTitle(l)

	if l.HasSeries() {
		for _, pt := range l.Points {
			if err := checkFinite("point", pt.X, pt.Y); err != nil {
				return err
			}
		}
		p.target(l)
		p.area(l)
		p.polyline(l)
		p.markers(l)
	}

	p.title(l)
	p.legend(l)
	return nil
}

func (p *painter) setFont(size float64, bold bool) {
	p.dc.SetFontFace(p.fonts.face(size, bold))
}

func (p *painter) line(x1, y1, x2, y2 float64) {
	p.dc.MoveTo(x1, y1)
	p.dc.LineTo(x2, y2)
	p.dc.Stroke()
}

func (p *painter) axes(l *Layout) {
	p.dc.SetColor(colorAxis)
	p.dc.SetLineWidth(2)
	p.line(l.Padding, l.Padding, l.Padding, l.Baseline())
	p.line(l.Padding, l.Baseline(), l.Padding+l.ChartWidth, l.Baseline())
}

func (p *painter) ticks(l *Layout) {
	p.setFont(l.LabelFontSize, false)
	for t := 0; t <= TickMax; t += TickStep {
		y := l.ValueY(float64(t))
		p.dc.SetColor(colorAxis)
		p.dc.DrawStringAnchored(strconv.Itoa(t), l.Padding-tickLabelGap, y, 1, 0.5)

		if t > 0 {
			p.dc.SetColor(colorGrid)
			p.dc.SetLineWidth(1)
			p.line(l.Padding, y, l.Padding+l.ChartWidth, y)
		}
	}
}

func (p *painter) axisTitle(l *Layout) {
	cy := l.Padding + l.ChartHeight/2
	p.dc.Push()
	defer p.dc.Pop()
	p.dc.RotateAbout(-math.Pi/2, axisTitleX, cy)
	p.dc.SetColor(colorText)
	p.setFont(l.LabelFontSize, true)
	p.dc.DrawStringAnchored("Marks", axisTitleX, cy, 0.5, 0.5)
}

// target draws the dashed target line before the data so the series sits on top.
func (p *painter) target(l *Layout) {
	p.dc.SetColor(colorTarget)
	p.dc.SetLineWidth(2)
	p.dc.SetDash(8, 4)
	p.line(l.Padding, l.TargetY, l.Padding+l.ChartWidth, l.TargetY)
	p.dc.SetDash()

	p.setFont(l.LabelFontSize, false)
	p.dc.DrawStringAnchored(targetCaption, l.Padding+targetLabelInset, l.TargetY-targetLabelLift, 0, 0)
}

func (p *painter) area(l *Layout) {
	last := l.Points[len(l.Points)-1]
	p.dc.SetColor(colorArea)
	p.dc.MoveTo(l.Padding, l.Baseline())
	for _, pt := range l.Points {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.LineTo(last.X, l.Baseline())
	p.dc.ClosePath()
	p.dc.Fill()
}

func (p *painter) polyline(l *Layout) {
	p.dc.SetColor(colorLine)
	p.dc.SetLineWidth(3)
	for i, pt := range l.Points {
		if i == 0 {
			p.dc.MoveTo(pt.X, pt.Y)
			continue
		}
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.Stroke()
}

// markers draws, per point: shadow, tier-colored disc, white border, value
// label and category label.
func (p *painter) markers(l *Layout) {
	for _, pt := range l.Points {
		p.dc.SetColor(colorShadow)
		p.dc.DrawCircle(pt.X+1, pt.Y+1, markerRadius)
		p.dc.Fill()

		p.dc.SetColor(pt.Tier.Color())
		p.dc.DrawCircle(pt.X, pt.Y, markerRadius)
		p.dc.FillPreserve()
		p.dc.SetColor(colorBorder)
		p.dc.SetLineWidth(markerBorder)
		p.dc.Stroke()

		p.dc.SetColor(colorText)
		p.setFont(l.ValueFontSize, true)
		p.dc.DrawStringAnchored(formatValue(pt.Value), pt.X, pt.Y-valueLabelOffset, 0.5, 0)

		p.categoryLabel(l, pt)
	}
}

func (p *painter) categoryLabel(l *Layout, pt Point) {
	y := l.Baseline() + categoryLabelGap
	p.dc.SetColor(colorAxis)
	p.setFont(l.LabelFontSize, false)

	p.dc.Push()
	defer p.dc.Pop()
	if pt.Rotated {
		p.dc.RotateAbout(-math.Pi/4, pt.X, y)
	}
	p.dc.DrawStringAnchored(pt.Label, pt.X, y, 0.5, 1)
}

func (p *painter) title(l *Layout) {
	p.dc.SetColor(colorText)
	p.setFont(l.TitleFontSize, true)
	p.dc.DrawStringAnchored(l.Title, float64(l.Width)/2, titleTop, 0.5, 1)
}

// legend lays entries out left to right; each one is pushed right by the
// rendered width of the previous caption plus a fixed margin.
func (p *painter) legend(l *Layout) {
	y := float64(l.Height) - legendBottom
	x := float64(l.Width)/2 - legendLeftOfMid
	p.setFont(l.LabelFontSize, false)
	for _, e := range legendEntries {
		p.dc.SetColor(e.color)
		p.dc.DrawRectangle(x, y, legendSwatch, legendSwatch)
		p.dc.Fill()

		p.dc.SetColor(colorAxis)
		p.dc.DrawStringAnchored(e.label, x+legendTextOffset, y+legendSwatch/2, 0, 0.5)

		w, _ := p.dc.MeasureString(e.label)
		x += w + legendEntryMargin
	}
}

// drawError paints the failure message centred over whatever is already on
// the surface.
func (p *painter) drawError(l *Layout) {
	defer func() { _ = recover() }()
	fonts, err := loadFonts()
	if err != nil {
		return
	}
	p.fonts = fonts
	p.dc.Identity()
	p.dc.SetDash()
	p.dc.ClearPath()
	p.dc.SetColor(colorError)
	p.setFont(l.TitleFontSize, false)
	p.dc.DrawStringAnchored(errorMessage, float64(l.Width)/2, float64(l.Height)/2, 0.5, 0.5)
}

// formatValue prints a value the shortest way that round-trips (7, 8.5).
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
