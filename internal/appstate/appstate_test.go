package appstate

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/render"
	"github.com/example/mathboard/internal/theme"
)

type fixedCards map[string]render.Card

func (f fixedCards) Card(markup string) (render.Card, bool) {
	c, ok := f[markup]
	return c, ok
}

func solidCard(w, h int, col color.RGBA) render.Card {
	img := image.NewRGBA(image.Rect(0, 0, w+4, h+4))
	box := image.Rect(2, 2, 2+w, 2+h)
	render.FillRect(img, box, col)
	return render.Card{Image: img, Anchor: image.Pt(2, 2), Box: box}
}

func TestLayoutToolbar(t *testing.T) {
	l := layoutToolbar(800, 48, 60, 50)
	if l.Bar != image.Rect(0, 0, 800, 48) {
		t.Fatalf("bar = %v", l.Bar)
	}
	if got := len(l.Swatches); got != len(palette.Swatches()) {
		t.Fatalf("got %d swatches, want %d", got, len(palette.Swatches()))
	}
	if l.Reset.Min.X != toolbarPad || l.Reset.Dx() != 60 {
		t.Errorf("reset = %v", l.Reset)
	}
	if l.Run.Max.X != 800-toolbarPad || l.Run.Dx() != 50 {
		t.Errorf("run = %v", l.Run)
	}
	for i := 1; i < len(l.Swatches); i++ {
		if !l.Swatches[i].Min.In(image.Rect(l.Swatches[i-1].Max.X, 0, 800, 48)) {
			t.Errorf("swatch %d at %v overlaps %v", i, l.Swatches[i], l.Swatches[i-1])
		}
	}
	if l.Swatches[0].Min.X <= l.Reset.Max.X {
		t.Errorf("first swatch %v overlaps reset %v", l.Swatches[0], l.Reset)
	}
}

func TestLayoutNarrowWindowKeepsRunAfterSwatches(t *testing.T) {
	l := layoutToolbar(100, 48, 60, 50)
	last := l.Swatches[len(l.Swatches)-1]
	if l.Run.Min.X < last.Max.X {
		t.Fatalf("run %v overlaps swatch %v", l.Run, last)
	}
}

func TestToolbarHit(t *testing.T) {
	l := layoutToolbar(800, 48, 60, 50)
	center := func(r image.Rectangle) image.Point {
		return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	}

	cases := []struct {
		name string
		p    image.Point
		tgt  target
		idx  int
	}{
		{"reset", center(l.Reset), targetReset, -1},
		{"run", center(l.Run), targetRun, -1},
		{"first swatch", center(l.Swatches[0]), targetSwatch, 0},
		{"last swatch", center(l.Swatches[11]), targetSwatch, 11},
		{"gap", image.Pt(l.Swatches[0].Max.X+1, center(l.Swatches[0]).Y), targetNone, -1},
		{"board", image.Pt(10, 100), targetNone, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tgt, idx := l.hit(tc.p)
			if tgt != tc.tgt || idx != tc.idx {
				t.Fatalf("hit(%v) = %v,%d want %v,%d", tc.p, tgt, idx, tc.tgt, tc.idx)
			}
		})
	}
}

func TestBoardRect(t *testing.T) {
	if got := boardRect(image.Pt(640, 480), 48); got != image.Rect(0, 48, 640, 528) {
		t.Fatalf("board = %v", got)
	}
}

func TestCardAtPrefersTopmost(t *testing.T) {
	cards := fixedCards{
		"a": solidCard(40, 20, color.RGBA{255, 0, 0, 255}),
		"b": solidCard(40, 20, color.RGBA{0, 255, 0, 255}),
	}
	anns := []overlay.Annotation{
		{ID: 1, Markup: "a", Position: image.Pt(10, 10)},
		{ID: 2, Markup: "b", Position: image.Pt(30, 15)},
		{ID: 3, Markup: "missing", Position: image.Pt(0, 0)},
	}

	if ann, ok := cardAt(anns, cards, image.Pt(35, 20)); !ok || ann.ID != 2 {
		t.Fatalf("overlap hit = %v,%v want id 2", ann.ID, ok)
	}
	if ann, ok := cardAt(anns, cards, image.Pt(12, 12)); !ok || ann.ID != 1 {
		t.Fatalf("hit = %v,%v want id 1", ann.ID, ok)
	}
	if _, ok := cardAt(anns, cards, image.Pt(200, 200)); ok {
		t.Fatal("expected miss")
	}
	// Shadow margin is not part of the card.
	if _, ok := cardAt(anns, cards, image.Pt(9, 9)); ok {
		t.Fatal("shadow margin should not hit")
	}
}

func TestSwatchForKey(t *testing.T) {
	want := map[rune]int{'1': 0, '5': 4, '9': 8, '0': 9, '-': 10, '=': 11}
	for r, idx := range want {
		got, ok := swatchForKey(r)
		if !ok || got != idx {
			t.Errorf("swatchForKey(%q) = %d,%v want %d", r, got, ok, idx)
		}
	}
	if _, ok := swatchForKey('a'); ok {
		t.Error("letters should not select a swatch")
	}
}

func TestLookupShortcut(t *testing.T) {
	actions := map[KeyShortcut]string{
		{Code: key.CodeReturnEnter}:                  "run",
		{Rune: 's', Modifiers: key.ModControl}:       "save",
		{Code: key.CodeR, Modifiers: key.ModControl}: "reset",
		{Code: key.CodeEscape}:                       "reset",
	}
	cases := []struct {
		name string
		ev   key.Event
		want string
	}{
		{"enter with rune", key.Event{Rune: '\r', Code: key.CodeReturnEnter}, "run"},
		{"ctrl upper S", key.Event{Rune: 'S', Code: key.CodeS, Modifiers: key.ModControl}, "save"},
		{"ctrl r by code", key.Event{Rune: -1, Code: key.CodeR, Modifiers: key.ModControl}, "reset"},
		{"escape", key.Event{Rune: -1, Code: key.CodeEscape}, "reset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := lookupShortcut(actions, tc.ev)
			if !ok || got != tc.want {
				t.Fatalf("lookup = %q,%v want %q", got, ok, tc.want)
			}
		})
	}
	if _, ok := lookupShortcut(actions, key.Event{Rune: 's', Code: key.CodeS}); ok {
		t.Fatal("plain s should not save")
	}
}

func TestComposeDrawsBoardInkAndCards(t *testing.T) {
	th := theme.Default()
	cv := canvas.New(100, 80, canvas.WithColor(color.RGBA{255, 255, 255, 255}))
	if err := cv.BeginStroke(image.Pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	cv.ExtendStroke(image.Pt(5, 5))
	cv.EndStroke()

	red := color.RGBA{255, 0, 0, 255}
	cards := fixedCards{"a": solidCard(10, 10, red)}
	anns := []overlay.Annotation{{ID: 1, Markup: "a", Position: image.Pt(50, 40)}}

	out := Compose(th, cv.Snapshot().Image(), anns, cards)
	if out.Bounds() != image.Rect(0, 0, 100, 80) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(90, 70); got != th.Board {
		t.Errorf("background = %v want %v", got, th.Board)
	}
	if got := out.RGBAAt(5, 5); got.R < 200 {
		t.Errorf("ink missing at stroke: %v", got)
	}
	if got := out.RGBAAt(55, 45); got != red {
		t.Errorf("card pixel = %v want %v", got, red)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 1, color.RGBA{1, 2, 3, 255})
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("save: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds().Size() != image.Pt(4, 3) {
		t.Fatalf("size = %v", got.Bounds().Size())
	}
}

func TestNotifyChangedNeverBlocks(t *testing.T) {
	a := New()
	for i := 0; i < 5; i++ {
		a.NotifyChanged()
	}
	if len(a.updateCh) != 1 {
		t.Fatalf("pending repaints = %d want 1", len(a.updateCh))
	}
}

func TestNewClampsSettings(t *testing.T) {
	a := New(WithTopOffset(2), WithSubmitTimeout(-1))
	if a.TopOffset != buttonHeight {
		t.Errorf("top = %d", a.TopOffset)
	}
	if a.SubmitTimeout != DefaultSubmitTimeout {
		t.Errorf("timeout = %v", a.SubmitTimeout)
	}
	if a.Output != DefaultOutput {
		t.Errorf("output = %q", a.Output)
	}
}
