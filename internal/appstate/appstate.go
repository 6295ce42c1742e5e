package appstate

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/render"
	"github.com/example/mathboard/internal/session"
	"github.com/example/mathboard/internal/theme"
)

// ProgramTitle is shown in the window title.
const ProgramTitle = "Mathboard"

const (
	// DefaultTopOffset is the toolbar height above the board.
	DefaultTopOffset = 48

	frameDropThreshold = 10
	messageDuration    = 2 * time.Second
)

var (
	labelFace   font.Face = basicfont.Face7x13
	messageFace font.Face = basicfont.Face7x13
)

func init() {
	if f, err := render.Face(14); err == nil {
		labelFace = f
	}
	if f, err := render.Face(24); err == nil {
		messageFace = f
	}
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive toolbar element.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

// ActionButton is a labelled toolbar button.
type ActionButton struct {
	label      string
	rect       image.Rectangle
	fill       [3]color.RGBA
	text       color.RGBA
	border     color.RGBA
	onActivate func()
}

func (b *ActionButton) Draw(dst *image.RGBA, state ButtonState) {
	render.FillRect(dst, b.rect, b.fill[state])
	render.StrokeRect(dst, b.rect, b.border, 1)
	m := render.Measure(labelFace, b.label)
	at := image.Pt(
		b.rect.Min.X+(b.rect.Dx()-m.Width)/2,
		b.rect.Min.Y+(b.rect.Dy()-m.Height)/2,
	)
	render.DrawText(dst, at, labelFace, b.label, b.text)
}

func (b *ActionButton) Rect() image.Rectangle { return b.rect }

func (b *ActionButton) SetRect(r image.Rectangle) { b.rect = r }

func (b *ActionButton) Activate() {
	if b.onActivate != nil {
		b.onActivate()
	}
}

// buttonWidth fits label with horizontal padding.
func buttonWidth(label string) int {
	return render.Measure(labelFace, label).Width + 4*toolbarPad
}

func newActionButton(label string, t *theme.Theme, primary bool, fn func()) *CacheButton {
	b := &ActionButton{
		label:      label,
		fill:       [3]color.RGBA{t.ButtonBackground, t.ButtonBackgroundHover, t.ButtonBackgroundPress},
		text:       t.ButtonText,
		border:     t.ButtonBorder,
		onActivate: fn,
	}
	if primary {
		b.fill[StateDefault] = t.RunBackground
		b.text = t.RunText
	}
	return &CacheButton{Button: b}
}

// drawToolbar paints the bar, both buttons and the swatch row.
func drawToolbar(dst *image.RGBA, t *theme.Theme, l toolbarLayout, st paintState) {
	render.FillRect(dst, l.Bar, t.ToolbarBackground)
	for _, b := range []struct {
		btn Button
		tgt target
	}{{st.reset, targetReset}, {st.run, targetRun}} {
		if b.btn == nil {
			continue
		}
		state := StateDefault
		switch {
		case st.pressed == b.tgt || (b.tgt == targetRun && st.view.Pending > 0):
			state = StatePressed
		case st.hover == b.tgt:
			state = StateHover
		}
		b.btn.Draw(dst, state)
	}

	for i, r := range l.Swatches {
		render.FillRect(dst, r, palette.At(i))
		border := t.SwatchBorder
		thick := 1
		if i == st.colorIdx {
			border = t.SwatchSelected
			thick = 2
		} else if st.hover == targetSwatch && st.hoverIdx == i {
			border = t.ButtonBackgroundHover
		}
		render.StrokeRect(dst, r, border, thick)
	}
}

// drawCards composites every annotation card onto dst. origin is where the
// board's top-left lands in dst. The card being dragged is drawn at its live
// position with a highlighted border.
func drawCards(dst draw.Image, origin image.Point, anns []overlay.Annotation, cards CardSource, drag dragState, highlight color.Color) {
	if cards == nil {
		return
	}
	for _, ann := range anns {
		card, ok := cards.Card(ann.Markup)
		if !ok {
			continue
		}
		pos := ann.Position
		if drag.active && drag.id == ann.ID {
			pos = drag.pos
		}
		at := origin.Add(pos).Sub(card.Anchor)
		draw.Draw(dst, card.Image.Bounds().Add(at), card.Image, card.Image.Bounds().Min, draw.Over)
		if drag.active && drag.id == ann.ID {
			render.StrokeRect(dst, cardRect(card, pos).Add(origin), highlight, 2)
		}
	}
}

// drawBanner shows msg centred on the board area.
func drawBanner(dst *image.RGBA, area image.Rectangle, t *theme.Theme, msg string, isErr bool) {
	d := &font.Drawer{Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := area.Min.X + (area.Dx()-wmsg)/2
	py := area.Min.Y + (area.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{t.BannerBackground}, image.Point{}, draw.Over)
	render.StrokeRect(dst, rect, t.BannerText, 2)

	col := t.BannerText
	if isErr {
		col = t.ErrorText
	}
	d.Dst = dst
	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

type dragState struct {
	active bool
	id     int
	pos    image.Point
}

type paintState struct {
	width, height int
	top           int
	layout        toolbarLayout
	reset, run    Button
	colorIdx      int
	hover         target
	hoverIdx      int
	pressed       target
	view          session.View
	drag          dragState
	message       string
	messageErr    bool
	messageUntil  time.Time
}

func (a *AppState) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		a.logger.Error("new buffer", "error", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()
	t := a.theme()

	render.FillRect(dst, dst.Bounds(), t.Background)
	board := boardRect(a.sess.Canvas().Size(), st.top)
	render.FillRect(dst, board, t.Board)
	a.sess.Canvas().Draw(dst, board)
	if ctx.Err() != nil {
		return
	}

	if a.cards != nil {
		drawCards(dst, board.Min, st.view.Annotations, a.cards, st.drag, t.CardDragging)
	}
	if ctx.Err() != nil {
		return
	}

	drawToolbar(dst, t, st.layout, st)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawBanner(dst, board, t, st.message, st.messageErr)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// sessionMover commits drags through the session so observers repaint.
type sessionMover struct{ s *session.Session }

func (m sessionMover) Move(id int, pos image.Point) error { return m.s.MoveAnnotation(id, pos) }

func (a *AppState) theme() *theme.Theme {
	if a.Theme == nil {
		return theme.Default()
	}
	return a.Theme
}
