// Package typeset renders annotation markup into card images.
package typeset

import (
	"log/slog"
	"sync"

	"github.com/example/mathboard/internal/render"
)

// Engine keeps one rendered card per live markup string.
type Engine struct {
	mu      sync.RWMutex
	style   render.CardStyle
	cards   map[string]render.Card
	onReady func()
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStyle sets the card style. Its Size is the \normalsize size; markup
// size commands scale it.
func WithStyle(s render.CardStyle) Option { return func(e *Engine) { e.style = s } }

// WithOnReady registers a callback run after each typesetting pass.
func WithOnReady(fn func()) Option { return func(e *Engine) { e.onReady = fn } }

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// New returns an engine with the default card style.
func New(opts ...Option) *Engine {
	e := &Engine{
		style:  render.DefaultCardStyle(),
		cards:  make(map[string]render.Card),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Typeset renders any markup not yet cached and forgets cards whose markup
// is no longer live.
func (e *Engine) Typeset(markups []string) {
	live := make(map[string]struct{}, len(markups))
	for _, m := range markups {
		live[m] = struct{}{}
	}

	e.mu.Lock()
	for m := range e.cards {
		if _, ok := live[m]; !ok {
			delete(e.cards, m)
		}
	}
	for m := range live {
		if _, ok := e.cards[m]; ok {
			continue
		}
		card, err := e.render(m)
		if err != nil {
			e.logger.Warn("typeset failed", "markup", m, "error", err)
			continue
		}
		e.cards[m] = card
	}
	e.mu.Unlock()

	if e.onReady != nil {
		e.onReady()
	}
}

// Card returns the rendered card for markup.
func (e *Engine) Card(markup string) (render.Card, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cards[markup]
	return c, ok
}

// Len reports how many cards are cached.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cards)
}

func (e *Engine) render(markup string) (render.Card, error) {
	text, size := Parse(markup)
	style := e.style
	style.Size = e.style.Size * size / baseSize
	return render.RenderCard(text, style)
}
