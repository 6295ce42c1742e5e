package theme

import (
	"image/color"

	"github.com/example/mathboard/internal/render"
)

// Theme defines the colours of the board window.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // behind the board
	Board      color.RGBA // drawing surface fill
	Foreground color.RGBA

	// Toolbar
	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA
	RunBackground         color.RGBA
	RunText               color.RGBA
	SwatchBorder          color.RGBA
	SwatchSelected        color.RGBA

	// Result cards
	CardBackground color.RGBA
	CardText       color.RGBA
	CardBorder     color.RGBA
	CardDragging   color.RGBA

	// Transient messages
	BannerBackground color.RGBA
	BannerText       color.RGBA
	ErrorText        color.RGBA
}

// Default returns the built-in dark theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{18, 18, 20, 255},
		Board:                 color.RGBA{0, 0, 0, 255},
		Foreground:            color.RGBA{235, 235, 235, 255},
		ToolbarBackground:     color.RGBA{32, 32, 36, 255},
		ButtonBackground:      color.RGBA{52, 52, 58, 255},
		ButtonBackgroundHover: color.RGBA{70, 70, 78, 255},
		ButtonBackgroundPress: color.RGBA{90, 90, 100, 255},
		ButtonText:            color.RGBA{235, 235, 235, 255},
		ButtonBorder:          color.RGBA{110, 110, 120, 255},
		RunBackground:         color.RGBA{34, 139, 230, 255},
		RunText:               color.RGBA{255, 255, 255, 255},
		SwatchBorder:          color.RGBA{80, 80, 88, 255},
		SwatchSelected:        color.RGBA{255, 255, 255, 255},
		CardBackground:        color.RGBA{24, 24, 28, 200},
		CardText:              color.RGBA{255, 255, 255, 255},
		CardBorder:            color.RGBA{90, 90, 100, 255},
		CardDragging:          color.RGBA{250, 176, 5, 255},
		BannerBackground:      color.RGBA{255, 255, 255, 230},
		BannerText:            color.RGBA{0, 0, 0, 255},
		ErrorText:             color.RGBA{200, 30, 30, 255},
	}
}

// CardStyle derives the result card style from the theme.
func (t *Theme) CardStyle() render.CardStyle {
	s := render.DefaultCardStyle()
	s.Foreground = t.CardText
	s.Background = t.CardBackground
	s.Border = t.CardBorder
	return s
}
