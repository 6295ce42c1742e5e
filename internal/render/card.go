package render

import (
	"image"
	"image/color"
)

// CardStyle controls how a result card is drawn.
type CardStyle struct {
	Size       float64
	Padding    int
	Foreground color.RGBA
	Background color.RGBA
	Border     color.RGBA
	Shadow     Shadow
}

// DefaultCardStyle is light text on a translucent dark card.
func DefaultCardStyle() CardStyle {
	return CardStyle{
		Size:       16,
		Padding:    8,
		Foreground: color.RGBA{255, 255, 255, 255},
		Background: color.RGBA{24, 24, 28, 200},
		Border:     color.RGBA{90, 90, 100, 255},
		Shadow:     DefaultShadow(),
	}
}

// Card is a rendered annotation. Anchor is the offset of the text box's
// top-left corner inside Image, so shadows can extend past it.
type Card struct {
	Image  *image.RGBA
	Anchor image.Point
	Box    image.Rectangle
}

// RenderCard sets text on a padded card and drops a shadow under it.
func RenderCard(text string, style CardStyle) (Card, error) {
	face, err := Face(style.Size)
	if err != nil {
		return Card{}, err
	}
	m := Measure(face, text)
	pad := max(style.Padding, 0)
	box := image.Rect(0, 0, m.Width+2*pad, m.Height+2*pad)

	img := image.NewRGBA(box)
	FillRect(img, box, style.Background)
	StrokeRect(img, box, style.Border, 1)
	DrawText(img, image.Pt(pad, pad), face, text, style.Foreground)

	out, at := style.Shadow.Drop(img)
	return Card{Image: out, Anchor: at, Box: box.Add(at)}, nil
}
