package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow describes a soft drop shadow cast by an annotation card.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
	Color   color.RGBA
}

// DefaultShadow is the shadow used under result cards.
func DefaultShadow() Shadow {
	return Shadow{
		Radius:  6,
		Offset:  image.Pt(3, 4),
		Opacity: 0.45,
		Color:   color.RGBA{A: 255},
	}
}

// Drop composites src over its own blurred silhouette. The returned image
// has a zero origin; the point reports where src's top-left corner landed
// inside it.
func (s Shadow) Drop(src image.Image) (*image.RGBA, image.Point) {
	if src == nil {
		return nil, image.Point{}
	}
	sb := src.Bounds()
	if sb.Empty() || s.Opacity <= 0 {
		out := image.NewRGBA(sb.Sub(sb.Min))
		draw.Draw(out, out.Bounds(), src, sb.Min, draw.Src)
		return out, image.Point{}
	}
	opacity := min(s.Opacity, 1)
	radius := max(s.Radius, 0)

	silhouette := sb.Inset(-radius)
	cast := silhouette.Add(s.Offset)
	all := sb.Union(cast)

	// The alpha model conversion keeps only coverage.
	mask := image.NewAlpha(silhouette.Sub(silhouette.Min))
	draw.Draw(mask, sb.Sub(silhouette.Min), src, sb.Min, draw.Src)
	boxBlur(mask, radius)

	out := image.NewRGBA(all.Sub(all.Min))
	tint := s.Color
	tint.A = uint8(float64(tint.A)*opacity + 0.5)
	draw.DrawMask(out, cast.Sub(all.Min), &image.Uniform{C: tint}, image.Point{}, mask, image.Point{}, draw.Over)

	at := sb.Min.Sub(all.Min)
	draw.Draw(out, sb.Sub(all.Min), src, sb.Min, draw.Over)
	return out, at
}

// boxBlur blurs m in place with a separable box filter of the given radius.
func boxBlur(m *image.Alpha, radius int) {
	if radius <= 0 {
		return
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()
	line := make([]uint8, max(w, h))
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+w]
		blurLine(row, 1, line[:w], radius)
	}
	for x := 0; x < w; x++ {
		blurLine(m.Pix[x:], m.Stride, line[:h], radius)
	}
}

// blurLine replaces n samples spaced stride apart with their windowed mean.
// Windows are clipped at the ends.
func blurLine(pix []uint8, stride int, scratch []uint8, radius int) {
	n := len(scratch)
	for i := range n {
		scratch[i] = pix[i*stride]
	}
	sum := 0
	hi := min(radius, n-1)
	for i := 0; i <= hi; i++ {
		sum += int(scratch[i])
	}
	for i := range n {
		lo := i - radius
		top := i + radius
		count := min(top, n-1) - max(lo, 0) + 1
		pix[i*stride] = uint8(sum / count)
		if top+1 < n {
			sum += int(scratch[top+1])
		}
		if lo >= 0 {
			sum -= int(scratch[lo])
		}
	}
}
