// Package session ties the board together: it routes pointer input to the
// canvas, submits drawings for recognition and schedules the returned
// annotations.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/mathboard/internal/bbox"
	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/recognize"
	"github.com/example/mathboard/internal/vars"
)

// DefaultDisplayDelay separates consecutive annotations of one batch.
const DefaultDisplayDelay = time.Second

// ErrEmptyCanvas is returned by Submit when there is nothing drawn.
var ErrEmptyCanvas = errors.New("canvas is empty")

// State is the pointer state of the board.
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Recognizer evaluates a drawing.
type Recognizer interface {
	Submit(ctx context.Context, image string, vars map[string]string) ([]recognize.Item, error)
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Result(text string)
	Error(err error)
}

// Metrics records session activity.
type Metrics interface {
	Submission(outcome string)
	AnnotationsShown(n int)
	Variables(n int)
}

// View is a consistent copy of the session for presenters.
type View struct {
	State       State
	Epoch       uint64
	Pending     int
	Annotations []overlay.Annotation
	Variables   map[string]string
}

// Session is the board controller. All multi-component sequences run under
// its lock; the network call does not.
type Session struct {
	mu      sync.Mutex
	canvas  *canvas.Canvas
	store   *vars.Store
	overlay *overlay.Manager
	rec     Recognizer

	state   State
	epoch   uint64
	pending int
	wg      sync.WaitGroup

	delay      time.Duration
	allowEmpty bool
	logger     *slog.Logger
	notifier   Notifier
	metrics    Metrics
	onChange   func()
}

// Option configures a Session.
type Option func(*Session)

// WithDisplayDelay sets the gap between annotations of one batch.
func WithDisplayDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithAllowEmpty sends empty drawings instead of rejecting them.
func WithAllowEmpty(v bool) Option { return func(s *Session) { s.allowEmpty = v } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithNotifier sets where results and failures are reported.
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option { return func(s *Session) { s.metrics = m } }

// WithOnChange registers a callback run after every visible change, outside
// the session lock. Presenters use it to request a repaint.
func WithOnChange(fn func()) Option { return func(s *Session) { s.onChange = fn } }

// New builds a session over the given components.
func New(c *canvas.Canvas, store *vars.Store, ov *overlay.Manager, rec Recognizer, opts ...Option) *Session {
	s := &Session{
		canvas:  c,
		store:   store,
		overlay: ov,
		rec:     rec,
		delay:   DefaultDisplayDelay,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Canvas returns the board canvas.
func (s *Session) Canvas() *canvas.Canvas { return s.canvas }

// Overlay returns the annotation manager.
func (s *Session) Overlay() *overlay.Manager { return s.overlay }

// Store returns the variable store.
func (s *Session) Store() *vars.Store { return s.store }

// State returns the pointer state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PointerDown starts a stroke at p.
func (s *Session) PointerDown(p image.Point) {
	s.mu.Lock()
	if err := s.canvas.BeginStroke(p); err != nil {
		s.mu.Unlock()
		return
	}
	s.state = Drawing
	s.mu.Unlock()
	s.changed()
}

// PointerMove extends the active stroke. It does nothing while idle.
func (s *Session) PointerMove(p image.Point) {
	s.mu.Lock()
	if s.state != Drawing {
		s.mu.Unlock()
		return
	}
	s.canvas.ExtendStroke(p)
	s.mu.Unlock()
	s.changed()
}

// PointerUp ends the active stroke.
func (s *Session) PointerUp() { s.endStroke() }

// PointerLeave ends the active stroke when the pointer leaves the board.
func (s *Session) PointerLeave() { s.endStroke() }

func (s *Session) endStroke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.EndStroke()
	s.state = Idle
}

// SetColor changes the colour of later strokes.
func (s *Session) SetColor(c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.SetColor(c)
}

// Submit sends the current drawing for recognition. The canvas is cleared as
// soon as the request is issued. On success assignments are merged and one
// annotation per item is scheduled at the drawing's centre.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	snap := s.canvas.Snapshot()
	box, found := bbox.Locate(snap.Image())
	if !found && !s.allowEmpty {
		s.mu.Unlock()
		s.logger.Info("submit skipped", "reason", "empty canvas")
		s.count("empty")
		return ErrEmptyCanvas
	}
	s.canvas.Clear()
	s.mu.Unlock()
	s.changed()
	return s.send(ctx, snap, box.Center())
}

// SubmitSnapshot sends an externally supplied drawing, such as one read
// from a file or the clipboard. The board canvas is left untouched.
func (s *Session) SubmitSnapshot(ctx context.Context, snap canvas.Snapshot) error {
	box, found := bbox.Locate(snap.Image())
	if !found && !s.allowEmpty {
		s.count("empty")
		return ErrEmptyCanvas
	}
	return s.send(ctx, snap, box.Center())
}

func (s *Session) send(ctx context.Context, snap canvas.Snapshot, anchor image.Point) error {
	s.mu.Lock()
	epoch := s.epoch
	dict := s.store.Snapshot()
	s.pending++
	s.mu.Unlock()

	items, err := s.recognize(ctx, snap, dict)

	s.mu.Lock()
	s.pending--
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("recognition failed", "error", err)
		s.count("error")
		if s.notifier != nil {
			s.notifier.Error(err)
		}
		s.changed()
		return fmt.Errorf("submit: %w", err)
	}
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info("discarding stale response", "epoch", epoch, "items", len(items))
		s.count("stale")
		s.changed()
		return nil
	}
	s.store.Merge(items)
	nvars := s.store.Len()
	if len(items) > 0 {
		s.wg.Add(1)
		go s.display(epoch, items, anchor)
	}
	s.mu.Unlock()

	s.logger.Info("recognition applied", "items", len(items), "variables", nvars, "x", anchor.X, "y", anchor.Y)
	s.count("ok")
	if s.metrics != nil {
		s.metrics.Variables(nvars)
	}
	if s.notifier != nil && len(items) > 0 {
		s.notifier.Result(summary(items))
	}
	s.changed()
	return nil
}

func (s *Session) recognize(ctx context.Context, snap canvas.Snapshot, dict map[string]string) ([]recognize.Item, error) {
	url, err := snap.DataURL()
	if err != nil {
		return nil, err
	}
	return s.rec.Submit(ctx, url, dict)
}

// display adds the batch one item at a time. Each item waits one delay after
// the previous; a reset in between drops the rest.
func (s *Session) display(epoch uint64, items []recognize.Item, at image.Point) {
	defer s.wg.Done()
	for _, it := range items {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		s.overlay.Add(it.Expr, it.Result, at)
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.AnnotationsShown(1)
		}
		s.changed()
	}
}

// Reset clears the canvas, the variables and the annotations together and
// invalidates pending displays and in-flight responses.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.canvas.EndStroke()
	s.canvas.Clear()
	s.store.Reset()
	s.overlay.ClearAll()
	s.state = Idle
	epoch := s.epoch
	s.mu.Unlock()

	s.logger.Info("board reset", "epoch", epoch)
	if s.metrics != nil {
		s.metrics.Variables(0)
	}
	s.changed()
}

// MoveAnnotation repositions one annotation.
func (s *Session) MoveAnnotation(id int, pos image.Point) error {
	if err := s.overlay.Move(id, pos); err != nil {
		return err
	}
	s.changed()
	return nil
}

// View returns a consistent copy of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		State:       s.state,
		Epoch:       s.epoch,
		Pending:     s.pending,
		Annotations: s.overlay.List(),
		Variables:   s.store.Snapshot(),
	}
}

// Wait blocks until every display scheduled so far has finished.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) count(outcome string) {
	if s.metrics != nil {
		s.metrics.Submission(outcome)
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func summary(items []recognize.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = overlay.Text(it.Expr, it.Result)
	}
	return strings.Join(parts, "; ")
}
