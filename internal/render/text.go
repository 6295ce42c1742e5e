// Package render holds raster helpers shared by the board and the
// typesetter: font faces, text drawing and drop shadows.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce sync.Once
	fontErr  error
	regular  *opentype.Font
	faces    sync.Map // map[float64]font.Face
)

func parseFont() {
	regular, fontErr = opentype.Parse(goregular.TTF)
	if fontErr != nil {
		fontErr = fmt.Errorf("parse font: %w", fontErr)
	}
}

// Face returns a Go Regular face at the given point size. Faces are cached.
func Face(size float64) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) {
		return nil, fmt.Errorf("font size %v", size)
	}
	fontOnce.Do(parseFont)
	if fontErr != nil {
		return nil, fontErr
	}
	if f, ok := faces.Load(size); ok {
		return f.(font.Face), nil
	}
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %v: %w", size, err)
	}
	actual, _ := faces.LoadOrStore(size, face)
	return actual.(font.Face), nil
}

// Metrics describes the extent of a rendered string.
type Metrics struct {
	Width    int
	Height   int
	Baseline int
}

// Measure reports the size of text set in face.
func Measure(face font.Face, text string) Metrics {
	d := &font.Drawer{Face: face}
	m := face.Metrics()
	asc := m.Ascent.Ceil()
	return Metrics{
		Width:    d.MeasureString(text).Ceil(),
		Height:   asc + m.Descent.Ceil(),
		Baseline: asc,
	}
}

// DrawText renders text with its top-left corner at pt.
func DrawText(dst draw.Image, pt image.Point, face font.Face, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// FillRect paints r with col using source-over compositing.
func FillRect(dst draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokeRect outlines r with a border thick pixels wide, drawn inside r.
func StrokeRect(dst draw.Image, r image.Rectangle, col color.Color, thick int) {
	if thick <= 0 || r.Empty() {
		return
	}
	u := image.NewUniform(col)
	for i := 0; i < thick; i++ {
		in := r.Inset(i)
		if in.Empty() {
			return
		}
		draw.Draw(dst, image.Rect(in.Min.X, in.Min.Y, in.Max.X, in.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Min.X, in.Max.Y-1, in.Max.X, in.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Min.X, in.Min.Y, in.Min.X+1, in.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Max.X-1, in.Min.Y, in.Max.X, in.Max.Y), u, image.Point{}, draw.Src)
	}
}
