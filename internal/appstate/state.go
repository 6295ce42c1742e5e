package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/mathboard/internal/clipboard"
	"github.com/example/mathboard/internal/notify"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/session"
	"github.com/example/mathboard/internal/theme"
)

// DefaultSubmitTimeout bounds one recognition round trip started from the
// window.
const DefaultSubmitTimeout = 30 * time.Second

// AppState holds the configuration of the board window.
type AppState struct {
	Theme         *theme.Theme
	Output        string
	TopOffset     int
	SubmitTimeout time.Duration

	sess     *session.Session
	cards    CardSource
	notifier *notify.Notifier
	logger   *slog.Logger

	updateCh  chan struct{}
	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithOutput sets the path the board is saved to.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithTopOffset sets the toolbar height.
func WithTopOffset(px int) Option { return func(a *AppState) { a.TopOffset = px } }

// WithSubmitTimeout bounds each submission.
func WithSubmitTimeout(d time.Duration) Option { return func(a *AppState) { a.SubmitTimeout = d } }

// WithNotifier sets the desktop notifier used for copy and save.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithLogger sets the window logger.
func WithLogger(l *slog.Logger) Option { return func(a *AppState) { a.logger = l } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		Output:        DefaultOutput,
		TopOffset:     DefaultTopOffset,
		SubmitTimeout: DefaultSubmitTimeout,
		logger:        slog.Default(),
		updateCh:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	if a.TopOffset < buttonHeight {
		a.TopOffset = buttonHeight
	}
	if a.SubmitTimeout <= 0 {
		a.SubmitTimeout = DefaultSubmitTimeout
	}
	return a
}

// messageEvent carries a banner from a background goroutine into the event
// loop.
type messageEvent struct {
	text  string
	isErr bool
}

// NotifyChanged requests a repaint. It never blocks and is safe to call from
// any goroutine, which makes it suitable as a session or typesetter hook.
func (a *AppState) NotifyChanged() {
	if a.updateCh == nil {
		return
	}
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run opens the board window for sess and blocks until it closes. cards
// supplies the rendered result cards.
func (a *AppState) Run(sess *session.Session, cards CardSource) {
	a.sess = sess
	a.cards = cards
	driver.Main(a.Main)
}

// lookupShortcut resolves a key press to a registered action. Runes are
// tried before key codes since platforms disagree on which one they fill.
func lookupShortcut(actions map[KeyShortcut]string, e key.Event) (string, bool) {
	if e.Rune > 0 {
		if name, ok := actions[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers}]; ok {
			return name, true
		}
	}
	name, ok := actions[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]
	return name, ok
}

func (a *AppState) Main(s screen.Screen) {
	sess := a.sess
	t := a.theme()
	top := a.TopOffset
	boardSize := sess.Canvas().Size()
	board := boardRect(boardSize, top)
	width, height := boardSize.X, boardSize.Y+top

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: ProgramTitle})
	if err != nil {
		a.logger.Error("new window", "error", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var (
		hover        target
		hoverIdx     = -1
		pressed      target
		message      string
		messageErr   bool
		messageUntil time.Time
		dragPos      image.Point
		paintMu      sync.Mutex
		paintCancel  context.CancelFunc
		dropCount    int
	)
	colorIdx := palette.IndexOf(sess.Canvas().Color())
	drag := overlay.NewDrag(sessionMover{sess})

	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			a.drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	showMessage := func(msg string, isErr bool) {
		message = msg
		messageErr = isErr
		messageUntil = time.Now().Add(messageDuration)
		if isErr {
			a.logger.Warn(msg)
		} else {
			a.logger.Info(msg)
		}
		w.Send(paint.Event{})
	}

	submit := func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.SubmitTimeout)
			defer cancel()
			err := sess.Submit(ctx)
			switch {
			case errors.Is(err, session.ErrEmptyCanvas):
				w.Send(messageEvent{text: "nothing to calculate"})
			case err != nil:
				w.Send(messageEvent{text: "calculation failed", isErr: true})
			}
		}()
	}

	reset := func() {
		drag.Cancel()
		sess.Reset()
	}

	selectColor := func(idx int) {
		colorIdx = palette.Clamp(idx)
		sess.SetColor(palette.At(colorIdx))
	}

	save := func() {
		view := sess.View()
		img := Compose(t, sess.Canvas().Snapshot().Image(), view.Annotations, a.cards)
		if err := SavePNG(a.Output, img); err != nil {
			a.logger.Error("save board", "error", err)
			showMessage("save failed", true)
			return
		}
		a.notifier.Save(a.Output)
		showMessage(fmt.Sprintf("saved %s", a.Output), false)
	}

	copyResult := func() {
		ann, ok := sess.Overlay().Latest()
		if !ok {
			showMessage("nothing to copy", false)
			return
		}
		if err := clipboard.WriteText(ann.Text()); err != nil {
			a.logger.Error("copy result", "error", err)
			showMessage("copy failed", true)
			return
		}
		var preview image.Image
		if a.cards != nil {
			if card, ok := a.cards.Card(ann.Markup); ok {
				preview = card.Image
			}
		}
		a.notifier.Copy(ann.Text(), preview)
		showMessage("result copied to clipboard", false)
	}

	resetBtn := newActionButton("Reset", t, false, reset)
	runBtn := newActionButton("Run", t, true, submit)
	layout := layoutToolbar(width, top, buttonWidth("Reset"), buttonWidth("Run"))
	relayout := func() {
		layout = layoutToolbar(width, top, buttonWidth("Reset"), buttonWidth("Run"))
		resetBtn.SetRect(layout.Reset)
		runBtn.SetRect(layout.Run)
	}
	relayout()

	keyboardAction := map[KeyShortcut]string{}
	actions := map[string]func(){}
	register := func(name string, keys KeyboardShortcuts, fn func()) {
		actions[name] = fn
		for _, sc := range keys.KeyboardShortcuts() {
			keyboardAction[sc] = name
		}
	}
	register("run", shortcutList{{Code: key.CodeReturnEnter}, {Code: key.CodeKeypadEnter}}, submit)
	register("reset", shortcutList{
		{Rune: 'r', Modifiers: key.ModControl},
		{Code: key.CodeR, Modifiers: key.ModControl},
		{Code: key.CodeEscape},
	}, reset)
	register("save", shortcutList{
		{Rune: 's', Modifiers: key.ModControl},
		{Code: key.CodeS, Modifiers: key.ModControl},
	}, save)
	register("copy", shortcutList{
		{Rune: 'c', Modifiers: key.ModControl},
		{Code: key.CodeC, Modifiers: key.ModControl},
	}, copyResult)

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case messageEvent:
			showMessage(e.text, e.isErr)
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			relayout()
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{
				width:        width,
				height:       height,
				top:          top,
				layout:       layout,
				reset:        resetBtn,
				run:          runBtn,
				colorIdx:     colorIdx,
				hover:        hover,
				hoverIdx:     hoverIdx,
				pressed:      pressed,
				view:         sess.View(),
				drag:         dragState{active: drag.Active(), id: drag.ID(), pos: dragPos},
				message:      message,
				messageErr:   messageErr,
				messageUntil: messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			cp := p.Sub(board.Min)
			switch e.Direction {
			case mouse.DirPress:
				if e.Button != mouse.ButtonLeft {
					continue
				}
				if tgt, idx := layout.hit(p); tgt != targetNone {
					pressed = tgt
					switch tgt {
					case targetReset:
						resetBtn.Activate()
					case targetRun:
						runBtn.Activate()
					case targetSwatch:
						selectColor(idx)
					}
					w.Send(paint.Event{})
					continue
				}
				if !p.In(board) {
					continue
				}
				if ann, ok := a.cardUnder(sess, cp); ok {
					drag.BeginDrag(ann.ID, ann.Position, cp)
					dragPos = ann.Position
					w.Send(paint.Event{})
					continue
				}
				sess.PointerDown(cp)
			case mouse.DirRelease:
				if e.Button != mouse.ButtonLeft {
					continue
				}
				pressed = targetNone
				if drag.Active() {
					if _, err := drag.End(); err != nil {
						a.logger.Warn("move annotation", "error", err)
					}
				} else {
					sess.PointerUp()
				}
				w.Send(paint.Event{})
			case mouse.DirNone:
				if tgt, idx := layout.hit(p); tgt != hover || idx != hoverIdx {
					hover, hoverIdx = tgt, idx
					w.Send(paint.Event{})
				}
				if drag.Active() {
					dragPos = drag.Update(cp)
					w.Send(paint.Event{})
					continue
				}
				if !p.In(board) {
					sess.PointerLeave()
					continue
				}
				sess.PointerMove(cp)
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if name, ok := lookupShortcut(keyboardAction, e); ok {
				actions[name]()
				w.Send(paint.Event{})
				continue
			}
			if e.Modifiers == 0 {
				if idx, ok := swatchForKey(e.Rune); ok {
					selectColor(idx)
					w.Send(paint.Event{})
				}
			}
		case error:
			a.logger.Error("window event", "error", e)
		}
	}
}

func (a *AppState) cardUnder(sess *session.Session, p image.Point) (overlay.Annotation, bool) {
	if a.cards == nil {
		return overlay.Annotation{}, false
	}
	return cardAt(sess.View().Annotations, a.cards, p)
}
