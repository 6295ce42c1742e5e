// Package httpapi exposes the board over HTTP so it can be driven without a
// window, by scripts, tests or another front end.
package httpapi

import (
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/recognize"
	"github.com/example/mathboard/internal/session"
)

// Server serves one board session.
type Server struct {
	Session *session.Session
	Logger  *slog.Logger
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Point is a board coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) image() image.Point { return image.Pt(p.X, p.Y) }

// Annotation is the wire form of overlay.Annotation.
type Annotation struct {
	ID     int    `json:"id"`
	Expr   string `json:"expr"`
	Answer string `json:"answer"`
	Text   string `json:"text"`
	Markup string `json:"markup"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Order  int    `json:"order"`
}

// State is the wire form of session.View.
type State struct {
	State       string            `json:"state"`
	Epoch       uint64            `json:"epoch"`
	Pending     int               `json:"pending"`
	Color       string            `json:"color"`
	Annotations []Annotation      `json:"annotations"`
	Variables   map[string]string `json:"variables"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the router.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/pointer", func(r chi.Router) {
		r.Post("/down", s.pointer(s.Session.PointerDown))
		r.Post("/move", s.pointer(s.Session.PointerMove))
		r.Post("/up", s.release(s.Session.PointerUp))
		r.Post("/leave", s.release(s.Session.PointerLeave))
	})
	r.Put("/color", s.setColor)
	r.Post("/submit", s.submit)
	r.Post("/reset", s.reset)
	r.Get("/state", s.state)
	r.Get("/annotations", s.annotations)
	r.Patch("/annotations/{id}", s.moveAnnotation)
	r.Get("/variables", s.variables)
	r.Get("/canvas.png", s.canvasPNG)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

func (s *Server) pointer(fn func(image.Point)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Point
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid point", err)
			return
		}
		fn(p.image())
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) release(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) setColor(w http.ResponseWriter, r *http.Request) {
	var body colorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid body", err)
		return
	}
	col, err := palette.Parse(body.Color)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid color", err)
		return
	}
	s.Session.SetColor(col)
	s.writeJSON(w, http.StatusOK, colorRequest{Color: palette.Format(col)})
}

// submit sends the drawing. With ?wait=true the response is delayed until
// every annotation of the batch is on the board.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	err := s.Session.Submit(r.Context())
	switch {
	case errors.Is(err, session.ErrEmptyCanvas):
		s.fail(w, http.StatusUnprocessableEntity, "nothing drawn", err)
		return
	case errors.Is(err, recognize.ErrRecognition):
		s.fail(w, http.StatusBadGateway, "recognition failed", err)
		return
	case errors.Is(err, canvas.ErrNoDrawingContext):
		s.fail(w, http.StatusConflict, "no drawing surface", err)
		return
	case err != nil:
		s.fail(w, http.StatusInternalServerError, "submit failed", err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		s.Session.Wait()
	}
	s.writeJSON(w, http.StatusAccepted, s.snapshot())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) annotations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, wireAnnotations(s.Session.Overlay().List()))
}

func (s *Server) moveAnnotation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid id", err)
		return
	}
	var p Point
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid point", err)
		return
	}
	if err := s.Session.MoveAnnotation(id, p.image()); err != nil {
		if errors.Is(err, overlay.ErrUnknownAnnotation) {
			s.fail(w, http.StatusNotFound, "unknown annotation", err)
			return
		}
		s.fail(w, http.StatusInternalServerError, "move failed", err)
		return
	}
	a, _ := s.Session.Overlay().Get(id)
	s.writeJSON(w, http.StatusOK, wireAnnotation(a))
}

func (s *Server) variables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Session.Store().Snapshot())
}

func (s *Server) canvasPNG(w http.ResponseWriter, r *http.Request) {
	data, err := s.Session.Canvas().Snapshot().PNG()
	if err != nil {
		s.fail(w, http.StatusConflict, "no drawing surface", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		s.Logger.Warn("canvas write failed", "error", err)
	}
}

func (s *Server) snapshot() State {
	v := s.Session.View()
	return State{
		State:       v.State.String(),
		Epoch:       v.Epoch,
		Pending:     v.Pending,
		Color:       palette.Format(s.Session.Canvas().Color()),
		Annotations: wireAnnotations(v.Annotations),
		Variables:   v.Variables,
	}
}

func wireAnnotations(list []overlay.Annotation) []Annotation {
	out := make([]Annotation, len(list))
	for i, a := range list {
		out[i] = wireAnnotation(a)
	}
	return out
}

func wireAnnotation(a overlay.Annotation) Annotation {
	return Annotation{
		ID:     a.ID,
		Expr:   a.Expr,
		Answer: a.Answer,
		Text:   a.Text(),
		Markup: a.Markup,
		X:      a.Position.X,
		Y:      a.Position.Y,
		Order:  a.CreationOrder,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= 500 {
		s.Logger.Error(msg, "error", err, "status", status)
	} else {
		s.Logger.Warn(msg, "error", err, "status", status)
	}
	s.writeJSON(w, status, errorResponse{Error: msg + ": " + err.Error()})
}
