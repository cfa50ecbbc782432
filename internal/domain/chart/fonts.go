package chart

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds the parsed regular and bold faces. Sizes are in pixels
// (72 DPI, so one point is one pixel).
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &fontSet{regular: regular, bold: bold}, nil
})

func (f *fontSet) face(size float64, bold bool) font.Face {
	src := f.regular
	if bold {
		src = f.bold
	}
	return truetype.NewFace(src, &truetype.Options{Size: size, Hinting: font.HintingNone})
}
