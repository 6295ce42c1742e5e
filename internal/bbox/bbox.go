// Package bbox finds the tight rectangle around drawn content in a raster.
//
// A pixel counts as content when its alpha channel is non-zero, whatever its
// colour. The scan visits every pixel and is meant to run once per
// submission, not per frame.
package bbox

import "image"

// DefaultAnchor is where results are placed when there is nothing to locate.
// It matches the board's initial annotation position.
var DefaultAnchor = image.Pt(10, 200)

// Box holds inclusive pixel bounds of the content.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Center returns the integer midpoint of the box.
func (b Box) Center() image.Point {
	return image.Pt((b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2)
}

// Rect converts the inclusive box to a half-open image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
}

// Empty reports whether the box spans a single point.
func (b Box) Empty() bool {
	return b.MinX == b.MaxX && b.MinY == b.MaxY
}

// Locate returns the bounding box of all pixels with alpha > 0. When the
// image holds no such pixel it returns Fallback(img.Bounds()) and false.
func Locate(img image.Image) (Box, bool) {
	if img == nil {
		return Fallback(image.Rectangle{}), false
	}
	b := img.Bounds()
	box := Box{MinX: b.Max.X, MinY: b.Max.Y, MaxX: b.Min.X - 1, MaxY: b.Min.Y - 1}

	if rgba, ok := img.(*image.RGBA); ok {
		scanRGBA(rgba, &box)
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
					continue
				}
				box.include(x, y)
			}
		}
	}

	if box.MinX > box.MaxX || box.MinY > box.MaxY {
		return Fallback(b), false
	}
	return box, true
}

func scanRGBA(img *image.RGBA, box *Box) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			box.include(x, y)
		}
	}
}

func (b *Box) include(x, y int) {
	b.MinX = min(b.MinX, x)
	b.MinY = min(b.MinY, y)
	b.MaxX = max(b.MaxX, x)
	b.MaxY = max(b.MaxY, y)
}

// Fallback returns a box collapsed onto DefaultAnchor, clamped into bounds
// when bounds are non-empty.
func Fallback(bounds image.Rectangle) Box {
	p := DefaultAnchor
	if !bounds.Empty() {
		p.X = min(max(p.X, bounds.Min.X), bounds.Max.X-1)
		p.Y = min(max(p.Y, bounds.Min.Y), bounds.Max.Y-1)
	}
	return Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}
