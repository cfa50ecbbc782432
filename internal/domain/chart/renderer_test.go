package chart_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/okian/reportcard/internal/domain/chart"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	testWidth  = 800
	testHeight = 400
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func opaque(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// countNear counts pixels in r within tol of want on every channel.
func countNear(img image.Image, r image.Rectangle, want color.RGBA, tol int) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			got := rgbaAt(img, x, y)
			if absDiff(got.R, want.R) <= tol && absDiff(got.G, want.G) <= tol && absDiff(got.B, want.B) <= tol {
				n++
			}
		}
	}
	return n
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func newMathsPage() (*chart.Page, *chart.Surface, *chart.Element) {
	page := chart.NewPage()
	s := page.AddSurface("mathsProgressChart", testWidth, testHeight)
	el := page.AddElement("mathsLoadingMessage")
	return page, s, el
}

func TestRenderScenario(t *testing.T) {
	Convey("Given a Maths surface with its loading message", t, func() {
		ctx := context.Background()
		r := chart.NewRenderer()
		page, surface, loading := newMathsPage()

		Convey("When rendering T1..T3 scored 7, 9, 11", func() {
			r.Render(ctx, page, "mathsProgressChart", []string{"T1", "T2", "T3"}, []float64{7, 9, 11}, "Maths")
			img := surface.Image()

			Convey("Then the surface matches its container", func() {
				So(img, ShouldNotBeNil)
				So(img.Bounds().Dx(), ShouldEqual, testWidth)
				So(img.Bounds().Dy(), ShouldEqual, testHeight)
				w, h := surface.StyleSize()
				So(w, ShouldEqual, testWidth)
				So(h, ShouldEqual, testHeight)
			})

			Convey("Then markers are colored average, good, good", func() {
				So(rgbaAt(img, 50, 175), ShouldResemble, opaque(chart.TierAverage.Color()))
				So(rgbaAt(img, 400, 125), ShouldResemble, opaque(chart.TierGood.Color()))
				So(rgbaAt(img, 750, 75), ShouldResemble, opaque(chart.TierGood.Color()))
			})

			Convey("Then the dashed target line is drawn at the value nine", func() {
				So(rgbaAt(img, 54, 124), ShouldResemble, opaque(chart.TargetColor()))
				// first gap of the 8-on/4-off dash pattern
				So(rgbaAt(img, 60, 124), ShouldNotResemble, opaque(chart.TargetColor()))
			})

			Convey("Then the corners keep the white background", func() {
				So(rgbaAt(img, 2, 2), ShouldResemble, white)
				So(rgbaAt(img, testWidth-2, testHeight-2), ShouldResemble, white)
			})

			Convey("Then the title is painted near the top centre", func() {
				text := countNear(img, image.Rect(250, 8, 550, 40), opaque(color.NRGBA{R: 0x33, G: 0x33, B: 0x33}), 10)
				So(text, ShouldBeGreaterThan, 50)
			})

			Convey("Then the legend swatches are painted", func() {
				legendY := testHeight - 30 + 6
				So(rgbaAt(img, testWidth/2-80+6, legendY), ShouldResemble, opaque(chart.LineColor()))
			})

			Convey("Then the loading message is hidden", func() {
				So(loading.Hidden(), ShouldBeTrue)
			})
		})
	})
}

func TestRenderDeterminism(t *testing.T) {
	Convey("Given the same inputs and container size", t, func() {
		ctx := context.Background()
		r := chart.NewRenderer()
		page, surface, _ := newMathsPage()
		labels := []string{"Topic 1", "Topic 2 Fractions", "Topic 3"}
		values := []float64{4, 8.5, 10}

		Convey("When rendering twice", func() {
			r.Render(ctx, page, "mathsProgressChart", labels, values, "Maths")
			first := surface.Image().(*image.RGBA)
			r.Render(ctx, page, "mathsProgressChart", labels, values, "Maths")
			second := surface.Image().(*image.RGBA)

			Convey("Then the pixels are identical", func() {
				So(first, ShouldNotPointTo, second)
				So(bytes.Equal(first.Pix, second.Pix), ShouldBeTrue)
			})
		})
	})
}

func TestRenderEmptySeries(t *testing.T) {
	Convey("Given no labels and no values", t, func() {
		ctx := context.Background()
		r := chart.NewRenderer()
		page, surface, loading := newMathsPage()

		Convey("When rendering", func() {
			So(func() {
				r.Render(ctx, page, "mathsProgressChart", nil, nil, "Maths")
			}, ShouldNotPanic)
			img := surface.Image()

			Convey("Then axes and legend are drawn", func() {
				So(rgbaAt(img, 50, 210), ShouldResemble, opaque(color.NRGBA{R: 0x66, G: 0x66, B: 0x66}))
				So(rgbaAt(img, 300, 350), ShouldResemble, opaque(color.NRGBA{R: 0x66, G: 0x66, B: 0x66}))
				So(rgbaAt(img, testWidth/2-80+6, testHeight-30+6), ShouldResemble, opaque(chart.LineColor()))
			})

			Convey("Then no target line, polyline or markers are drawn", func() {
				So(rgbaAt(img, 54, 124), ShouldResemble, white)
				plot := image.Rect(52, 52, 748, 348)
				So(countNear(img, plot, opaque(chart.LineColor()), 0), ShouldEqual, 0)
				So(countNear(img, plot, opaque(chart.TargetColor()), 0), ShouldEqual, 0)
			})

			Convey("Then the render still counts as complete", func() {
				So(loading.Hidden(), ShouldBeTrue)
			})
		})
	})
}

func TestRenderFailures(t *testing.T) {
	Convey("Given a renderer", t, func() {
		ctx := context.Background()
		r := chart.NewRenderer()

		Convey("When the surface id does not exist", func() {
			page, surface, loading := newMathsPage()

			So(func() {
				r.Render(ctx, page, "physicsProgressChart", []string{"T1"}, []float64{5}, "Physics")
			}, ShouldNotPanic)

			Convey("Then nothing on the page is touched", func() {
				So(surface.Image(), ShouldBeNil)
				So(loading.Hidden(), ShouldBeFalse)
				So(page.SurfaceIDs(), ShouldResemble, []string{"mathsProgressChart"})
			})
		})

		Convey("When a value cannot be plotted", func() {
			page, surface, loading := newMathsPage()

			So(func() {
				r.Render(ctx, page, "mathsProgressChart", []string{"T1", "T2"}, []float64{math.NaN(), 7}, "Maths")
			}, ShouldNotPanic)
			img := surface.Image()

			Convey("Then the axes drawn before the failure remain", func() {
				So(rgbaAt(img, 50, 210), ShouldResemble, opaque(color.NRGBA{R: 0x66, G: 0x66, B: 0x66}))
			})

			Convey("Then the error message is painted in the centre", func() {
				centre := image.Rect(testWidth/2-120, testHeight/2-15, testWidth/2+120, testHeight/2+15)
				So(countNear(img, centre, opaque(chart.ErrorColor()), 10), ShouldBeGreaterThan, 20)
			})

			Convey("Then the loading message stays visible", func() {
				So(loading.Hidden(), ShouldBeFalse)
			})
		})

		Convey("When labels and values differ in length", func() {
			page, surface, loading := newMathsPage()

			r.Render(ctx, page, "mathsProgressChart", []string{"T1", "T2", "T3"}, []float64{9, 6}, "Maths")

			Convey("Then the shorter length is plotted without error", func() {
				img := surface.Image()
				So(rgbaAt(img, 50, 125), ShouldResemble, opaque(chart.TierGood.Color()))
				So(rgbaAt(img, 750, 200), ShouldResemble, opaque(chart.TierAverage.Color()))
				So(loading.Hidden(), ShouldBeTrue)
			})
		})

		Convey("When the container collapses to zero", func() {
			page := chart.NewPage()
			s := page.AddSurface("tinyProgressChart", 0, 0)

			So(func() {
				r.Render(ctx, page, "tinyProgressChart", []string{"T1"}, []float64{5}, "Tiny")
			}, ShouldNotPanic)

			Convey("Then a 1x1 surface is produced", func() {
				So(s.Image().Bounds().Dx(), ShouldEqual, 1)
			})
		})
	})
}

func TestSurfaceResize(t *testing.T) {
	Convey("Given a rendered surface", t, func() {
		ctx := context.Background()
		r := chart.NewRenderer()
		page, surface, _ := newMathsPage()
		r.Render(ctx, page, "mathsProgressChart", []string{"T1"}, []float64{5}, "Maths")

		Convey("When the container shrinks and the chart is rendered again", func() {
			surface.SetContainerSize(640, 300)
			r.Render(ctx, page, "mathsProgressChart", []string{"T1"}, []float64{5}, "Maths")

			Convey("Then pixel and display size follow the new container", func() {
				So(surface.Image().Bounds().Dx(), ShouldEqual, 640)
				So(surface.Image().Bounds().Dy(), ShouldEqual, 300)
				w, h := surface.StyleSize()
				So(w, ShouldEqual, 640)
				So(h, ShouldEqual, 300)
			})

			Convey("Then the surface encodes as a PNG of that size", func() {
				var buf bytes.Buffer
				So(surface.EncodePNG(&buf), ShouldBeNil)
				cfg, err := png.DecodeConfig(&buf)
				So(err, ShouldBeNil)
				So(cfg.Width, ShouldEqual, 640)
				So(cfg.Height, ShouldEqual, 300)
			})
		})
	})

	Convey("Given a surface that was never rendered", t, func() {
		s := chart.NewSurface("x", 10, 10)

		Convey("Then encoding fails", func() {
			So(s.EncodePNG(&bytes.Buffer{}), ShouldWrap, chart.ErrSurfaceNotPainted)
		})
	})
}

func TestInitializeAll(t *testing.T) {
	Convey("Given a page with one surface per subject", t, func() {
		ctx := context.Background()
		page := chart.NewPage()
		maths := page.AddSurface("mathsProgressChart", 600, 300)
		science := page.AddSurface("scienceProgressChart", 600, 300)
		mathsLoading := page.AddElement("mathsLoadingMessage")
		scienceLoading := page.AddElement("scienceLoadingMessage")

		series := chart.SeriesMap{
			"Maths":   {Labels: []string{"Topic 1", "Topic 2"}, Values: []float64{10, 7}},
			"Science": {Labels: []string{"Topic 1"}, Values: []float64{4}},
			"History": {Labels: []string{"Topic 1"}, Values: []float64{4}},
		}

		Convey("When initializing all charts", func() {
			chart.NewRenderer().InitializeAll(ctx, page, series)

			Convey("Then every present surface is painted and its loader hidden", func() {
				So(maths.Image(), ShouldNotBeNil)
				So(science.Image(), ShouldNotBeNil)
				So(mathsLoading.Hidden(), ShouldBeTrue)
				So(scienceLoading.Hidden(), ShouldBeTrue)
			})

			Convey("Then a series without a surface is skipped", func() {
				_, ok := page.Surface("historyProgressChart")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the id conventions are injected", func() {
			custom := chart.NewPage()
			s := custom.AddSurface("chart-maths", 400, 200)
			el := custom.AddElement("loading-maths")
			r := chart.NewRenderer(
				chart.WithSurfaceID(func(name string) string { return "chart-" + "maths" }),
				chart.WithLoadingID(func(id string) string { return "loading-maths" }),
			)
			r.InitializeAll(ctx, custom, chart.SeriesMap{"Maths": series["Maths"]})

			Convey("Then the injected ids are used", func() {
				So(s.Image(), ShouldNotBeNil)
				So(el.Hidden(), ShouldBeTrue)
			})
		})
	})

	Convey("Given the default id conventions", t, func() {
		So(chart.DefaultSurfaceID("Maths"), ShouldEqual, "mathsProgressChart")
		So(chart.DefaultLoadingID("mathsProgressChart"), ShouldEqual, "mathsLoadingMessage")
		So(chart.SeriesMap{"b": {}, "a": {}}.Names(), ShouldResemble, []string{"a", "b"})
	})
}
