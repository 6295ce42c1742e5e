package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// arcSteps is the number of chords used for each half-circle cap.
const arcSteps = 8

var opaque = image.NewUniform(color.Alpha{A: 0xff})

// segment rasterizes a round-capped line from a to b. Coverage is
// accumulated only over the segment's own bounding box and then composited
// onto the part of it that lies inside the canvas. The caller holds c.mu.
func (c *Canvas) segment(a, b image.Point) {
	r := c.width / 2
	pad := int(math.Ceil(float64(r))) + 1
	box := image.Rect(
		min(a.X, b.X)-pad, min(a.Y, b.Y)-pad,
		max(a.X, b.X)+pad+1, max(a.Y, b.Y)+pad+1,
	)
	area := box.Intersect(c.img.Bounds())
	if area.Empty() {
		return
	}

	// Points address pixel centres.
	ox := float32(box.Min.X) - 0.5
	oy := float32(box.Min.Y) - 0.5
	c.rast.Reset(box.Dx(), box.Dy())
	capsule(c.rast, float32(a.X)-ox, float32(a.Y)-oy, float32(b.X)-ox, float32(b.Y)-oy, r)

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	c.rast.Draw(mask, mask.Bounds(), opaque, image.Point{})

	c.src.C = c.col
	draw.DrawMask(c.img, area, c.src, image.Point{}, mask, area.Min.Sub(box.Min), draw.Over)
}

// capsule adds the outline of a stroke of radius r around the segment
// (ax, ay)-(bx, by). A degenerate segment becomes a dot.
func capsule(z *vector.Rasterizer, ax, ay, bx, by, r float32) {
	dx, dy := float64(bx-ax), float64(by-ay)
	if math.Hypot(dx, dy) < 1e-3 {
		z.MoveTo(ax+r, ay)
		arc(z, ax, ay, r, 0, -2*math.Pi)
		z.ClosePath()
		return
	}
	// Angle of the left-hand normal (-dy, dx).
	start := math.Atan2(dx, -dy)
	z.MoveTo(ax+r*float32(math.Cos(start)), ay+r*float32(math.Sin(start)))
	arc(z, bx, by, r, start, start-math.Pi)
	arc(z, ax, ay, r, start-math.Pi, start-2*math.Pi)
	z.ClosePath()
}

func arc(z *vector.Rasterizer, cx, cy, r float32, from, to float64) {
	for i := 0; i <= arcSteps; i++ {
		t := from + (to-from)*float64(i)/arcSteps
		z.LineTo(cx+r*float32(math.Cos(t)), cy+r*float32(math.Sin(t)))
	}
}
