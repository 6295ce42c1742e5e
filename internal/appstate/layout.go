package appstate

import (
	"image"

	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/render"
)

const (
	toolbarPad   = 8
	buttonHeight = 28
	swatchSize   = 24
	swatchGap    = 6
)

// target identifies what lies under the pointer.
type target int

const (
	targetNone target = iota
	targetReset
	targetSwatch
	targetRun
	targetBoard
)

// toolbarLayout holds the toolbar control rectangles in window coordinates.
type toolbarLayout struct {
	Bar      image.Rectangle
	Reset    image.Rectangle
	Swatches []image.Rectangle
	Run      image.Rectangle
}

// layoutToolbar places Reset on the left, the swatches after it and Run on
// the right edge of a bar top pixels tall. Controls are centred vertically.
func layoutToolbar(width, top, resetW, runW int) toolbarLayout {
	l := toolbarLayout{Bar: image.Rect(0, 0, width, top)}
	by := (top - buttonHeight) / 2
	sy := (top - swatchSize) / 2

	x := toolbarPad
	l.Reset = image.Rect(x, by, x+resetW, by+buttonHeight)
	x = l.Reset.Max.X + 2*toolbarPad

	n := len(palette.Swatches())
	l.Swatches = make([]image.Rectangle, n)
	for i := range l.Swatches {
		l.Swatches[i] = image.Rect(x, sy, x+swatchSize, sy+swatchSize)
		x += swatchSize + swatchGap
	}

	rx := max(width-toolbarPad-runW, x+toolbarPad)
	l.Run = image.Rect(rx, by, rx+runW, by+buttonHeight)
	return l
}

// hit reports the control under p. The index is only meaningful for
// swatches.
func (l toolbarLayout) hit(p image.Point) (target, int) {
	if !p.In(l.Bar) {
		return targetNone, -1
	}
	switch {
	case p.In(l.Reset):
		return targetReset, -1
	case p.In(l.Run):
		return targetRun, -1
	}
	for i, r := range l.Swatches {
		if p.In(r) {
			return targetSwatch, i
		}
	}
	return targetNone, -1
}

// boardRect is the drawing surface below the toolbar.
func boardRect(size image.Point, top int) image.Rectangle {
	return image.Rect(0, top, size.X, top+size.Y)
}

// CardSource looks up a rendered card for an annotation's markup.
type CardSource interface {
	Card(markup string) (render.Card, bool)
}

// cardRect is the text box of card when its top-left sits at pos.
func cardRect(card render.Card, pos image.Point) image.Rectangle {
	return image.Rectangle{Min: pos, Max: pos.Add(card.Box.Size())}
}

// cardAt returns the topmost annotation whose card contains p. Later
// annotations are drawn on top so the search runs backwards.
func cardAt(anns []overlay.Annotation, cards CardSource, p image.Point) (overlay.Annotation, bool) {
	for i := len(anns) - 1; i >= 0; i-- {
		card, ok := cards.Card(anns[i].Markup)
		if !ok {
			continue
		}
		if p.In(cardRect(card, anns[i].Position)) {
			return anns[i], true
		}
	}
	return overlay.Annotation{}, false
}

// swatchForKey maps the number row onto the swatches: 1-9 then 0, - and =.
func swatchForKey(r rune) (int, bool) {
	switch {
	case r >= '1' && r <= '9':
		return int(r - '1'), true
	case r == '0':
		return 9, true
	case r == '-':
		return 10, true
	case r == '=':
		return 11, true
	}
	return 0, false
}
