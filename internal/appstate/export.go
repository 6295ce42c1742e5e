package appstate

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/render"
	"github.com/example/mathboard/internal/theme"
)

// DefaultOutput is where the board is saved when no path is configured.
const DefaultOutput = "mathboard.png"

// Compose flattens the ink and its cards onto the board colour. The result
// has the size of ink with its origin at zero.
func Compose(t *theme.Theme, ink image.Image, anns []overlay.Annotation, cards CardSource) *image.RGBA {
	if t == nil {
		t = theme.Default()
	}
	b := ink.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	render.FillRect(out, out.Bounds(), t.Board)
	draw.Draw(out, out.Bounds(), ink, b.Min, draw.Over)
	drawCards(out, image.Point{}, anns, cards, dragState{}, nil)
	return out
}

// SavePNG writes img to path as a PNG file.
func SavePNG(path string, img image.Image) error {
	data, err := canvas.NewSnapshot(img).PNG()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
