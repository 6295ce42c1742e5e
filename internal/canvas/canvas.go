// Package canvas owns the board's raster and turns pointer positions into
// round-capped freehand strokes.
package canvas

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"

	"golang.org/x/image/vector"

	"github.com/example/mathboard/internal/palette"
)

// DefaultLineWidth is the stroke thickness in pixels.
const DefaultLineWidth = 3

// ErrNoDrawingContext reports a canvas without a backing raster. Drawing
// calls on such a canvas are no-ops.
var ErrNoDrawingContext = errors.New("canvas: drawing context unavailable")

// Canvas is the drawing surface. Its dimensions are fixed at construction.
// All methods are safe for concurrent use.
type Canvas struct {
	mu     sync.Mutex
	img    *image.RGBA
	col    color.RGBA
	width  float32
	active bool
	last   image.Point
	rast   *vector.Rasterizer
	src    *image.Uniform

	logger   *slog.Logger
	warnOnce sync.Once
}

// Option configures a Canvas during creation.
type Option func(*Canvas)

// WithColor sets the initial stroke colour.
func WithColor(c color.RGBA) Option { return func(cv *Canvas) { cv.col = c } }

// WithLineWidth sets the stroke thickness in pixels.
func WithLineWidth(w float64) Option {
	return func(cv *Canvas) {
		if w > 0 {
			cv.width = float32(w)
		}
	}
}

// WithLogger sets the logger used for the one-off unavailable warning.
func WithLogger(l *slog.Logger) Option { return func(cv *Canvas) { cv.logger = l } }

// New creates a transparent canvas of the given size. A non-positive size
// yields a canvas without a drawing context.
func New(width, height int, opts ...Option) *Canvas {
	c := &Canvas{
		col:    palette.Default(),
		width:  DefaultLineWidth,
		rast:   &vector.Rasterizer{},
		src:    image.NewUniform(color.Transparent),
		logger: slog.Default(),
	}
	if width > 0 && height > 0 {
		c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Size returns the raster dimensions.
func (c *Canvas) Size() image.Point {
	if c == nil || c.img == nil {
		return image.Point{}
	}
	return c.img.Bounds().Size()
}

// BeginStroke starts a new path at p.
func (c *Canvas) BeginStroke(p image.Point) error {
	if err := c.context(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	c.last = p
	return nil
}

// ExtendStroke draws a segment from the previous point to p with the current
// colour. It does nothing when no stroke is active.
func (c *Canvas) ExtendStroke(p image.Point) {
	if c.context() != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.segment(c.last, p)
	c.last = p
}

// EndStroke finishes the active stroke. Calling it without a stroke is fine.
func (c *Canvas) EndStroke() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

// Drawing reports whether a stroke is in progress.
func (c *Canvas) Drawing() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetColor changes the colour of subsequent segments.
func (c *Canvas) SetColor(col color.RGBA) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.col = col
	c.mu.Unlock()
}

// Color returns the current stroke colour.
func (c *Canvas) Color() color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col
}

// Clear makes every pixel fully transparent. The stroke colour and any
// active stroke are kept.
func (c *Canvas) Clear() {
	if c.context() != nil {
		return
	}
	c.mu.Lock()
	clear(c.img.Pix)
	c.mu.Unlock()
}

// Snapshot returns a copy of the raster. The canvas is not modified.
func (c *Canvas) Snapshot() Snapshot {
	if c.context() != nil {
		return Snapshot{img: image.NewRGBA(image.Rectangle{})}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := image.NewRGBA(c.img.Bounds())
	copy(cp.Pix, c.img.Pix)
	return Snapshot{img: cp}
}

// Draw composites the raster onto dst with its origin at r.Min.
func (c *Canvas) Draw(dst draw.Image, r image.Rectangle) {
	if c.context() != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(dst, r, c.img, image.Point{}, draw.Over)
}

func (c *Canvas) context() error {
	if c == nil {
		return ErrNoDrawingContext
	}
	if c.img == nil {
		c.warnOnce.Do(func() {
			c.logger.Warn("canvas has no drawing context; input ignored", "error", ErrNoDrawingContext)
		})
		return ErrNoDrawingContext
	}
	return nil
}
