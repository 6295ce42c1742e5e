// Package overlay keeps the rendered results that float above the board.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

// ErrUnknownAnnotation is returned when an id does not name a live annotation.
var ErrUnknownAnnotation = errors.New("unknown annotation")

// Annotation is one displayed result.
type Annotation struct {
	ID            int
	Expr          string
	Answer        string
	Markup        string
	Position      image.Point
	CreationOrder int
}

// Text is the plain "expr = answer" form of the annotation.
func (a Annotation) Text() string { return Text(a.Expr, a.Answer) }

// Typesetter renders markup strings. Typeset receives every live markup in
// creation order and is called after each change to the collection.
type Typesetter interface {
	Typeset(markups []string)
}

// Markup wraps an expression and its answer in display math.
func Markup(expr, answer string) string {
	return fmt.Sprintf(`\(\LARGE{%s = %s}\)`, expr, answer)
}

// Text joins an expression and its answer.
func Text(expr, answer string) string {
	return expr + " = " + answer
}

// Manager owns the ordered annotation collection.
type Manager struct {
	mu     sync.RWMutex
	items  []Annotation
	nextID int
	ts     Typesetter
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTypesetter sets the engine notified after every change.
func WithTypesetter(t Typesetter) Option { return func(m *Manager) { m.ts = t } }

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{nextID: 1, logger: slog.Default()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Add appends an annotation at pos and re-triggers typesetting.
func (m *Manager) Add(expr, answer string, pos image.Point) Annotation {
	m.mu.Lock()
	a := Annotation{
		ID:            m.nextID,
		Expr:          expr,
		Answer:        answer,
		Markup:        Markup(expr, answer),
		Position:      pos,
		CreationOrder: len(m.items),
	}
	m.nextID++
	m.items = append(m.items, a)
	markups := m.markupsLocked()
	m.mu.Unlock()

	m.logger.Debug("annotation added", "id", a.ID, "text", a.Text(), "x", pos.X, "y", pos.Y)
	m.typeset(markups)
	return a
}

// Move places the annotation id at pos.
func (m *Manager) Move(id int, pos image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Position = pos
			return nil
		}
	}
	return fmt.Errorf("move %d: %w", id, ErrUnknownAnnotation)
}

// Get returns the annotation with the given id.
func (m *Manager) Get(id int) (Annotation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.items {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// Latest returns the most recently added annotation.
func (m *Manager) Latest() (Annotation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.items) == 0 {
		return Annotation{}, false
	}
	return m.items[len(m.items)-1], true
}

// List returns a copy of the annotations in creation order.
func (m *Manager) List() []Annotation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Annotation, len(m.items))
	copy(out, m.items)
	return out
}

// Len reports the number of annotations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// ClearAll removes every annotation. Ids are not reused.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	m.typeset(nil)
}

func (m *Manager) markupsLocked() []string {
	out := make([]string, len(m.items))
	for i, a := range m.items {
		out[i] = a.Markup
	}
	return out
}

func (m *Manager) typeset(markups []string) {
	if m.ts == nil {
		return
	}
	m.ts.Typeset(markups)
}
