package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/logging"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/recognize"
	"github.com/example/mathboard/internal/session"
	"github.com/example/mathboard/internal/telemetry"
	"github.com/example/mathboard/internal/vars"
)

type stubRecognizer struct {
	items []recognize.Item
	err   error
	seen  []map[string]string
}

func (s *stubRecognizer) Submit(_ context.Context, _ string, vars map[string]string) ([]recognize.Item, error) {
	s.seen = append(s.seen, vars)
	return s.items, s.err
}

func newTestHandler(t *testing.T, rec session.Recognizer) (http.Handler, *session.Session) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)
	sess := session.New(canvas.New(120, 120), vars.New(), overlay.NewManager(), rec,
		session.WithDisplayDelay(time.Millisecond),
		session.WithLogger(logging.NewNop()),
		session.WithMetrics(metrics),
	)
	h := NewHandler(&Server{
		Session: sess,
		Logger:  logging.NewNop(),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return h, sess
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func draw(t *testing.T, h http.Handler) {
	t.Helper()
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/pointer/down", Point{X: 20, Y: 20}).Code)
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/pointer/move", Point{X: 60, Y: 40}).Code)
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/pointer/up", nil).Code)
}

func TestSubmitFlow(t *testing.T) {
	rec := &stubRecognizer{items: []recognize.Item{{Expr: "x", Result: "5", Assign: true}}}
	h, _ := newTestHandler(t, rec)

	draw(t, h)
	w := do(t, h, http.MethodPost, "/submit?wait=true", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var st State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Len(t, st.Annotations, 1)
	assert.Equal(t, "x = 5", st.Annotations[0].Text)
	assert.Equal(t, map[string]string{"x": "5"}, st.Variables)
	assert.Equal(t, "idle", st.State)

	w = do(t, h, http.MethodGet, "/variables", nil)
	assert.JSONEq(t, `{"x":"5"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `mathboard_submissions_total{outcome="ok"} 1`)
}

func TestSubmitEmpty(t *testing.T) {
	rec := &stubRecognizer{}
	h, _ := newTestHandler(t, rec)
	w := do(t, h, http.MethodPost, "/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, rec.seen)
}

func TestSubmitBackendFailure(t *testing.T) {
	rec := &stubRecognizer{err: &recognize.Error{Op: "status", StatusCode: 500, Err: assert.AnError}}
	h, _ := newTestHandler(t, rec)
	draw(t, h)
	w := do(t, h, http.MethodPost, "/submit", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "recognition failed")
}

func TestMoveAnnotation(t *testing.T) {
	rec := &stubRecognizer{items: []recognize.Item{{Expr: "2+2", Result: "4"}}}
	h, sess := newTestHandler(t, rec)
	draw(t, h)
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/submit?wait=true", nil).Code)
	id := sess.Overlay().List()[0].ID

	w := do(t, h, http.MethodPatch, "/annotations/"+strconv.Itoa(id), Point{X: 5, Y: 6})
	require.Equal(t, http.StatusOK, w.Code)
	var a Annotation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, 5, a.X)
	assert.Equal(t, 6, a.Y)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, "/annotations/999", Point{}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/annotations/abc", Point{}).Code)

	w = do(t, h, http.MethodGet, "/annotations", nil)
	var list []Annotation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].X)
}

func TestColorAndReset(t *testing.T) {
	h, sess := newTestHandler(t, &stubRecognizer{})

	w := do(t, h, http.MethodPut, "/color", colorRequest{Color: "rgb(238, 51, 51)"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"color":"#EE3333"}`, w.Body.String())
	assert.Equal(t, uint8(238), sess.Canvas().Color().R)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/color", colorRequest{Color: "nope"}).Code)

	draw(t, h)
	w = do(t, h, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, uint64(1), st.Epoch)
	assert.Empty(t, st.Annotations)
}

func TestCanvasPNG(t *testing.T) {
	h, _ := newTestHandler(t, &stubRecognizer{})
	draw(t, h)
	w := do(t, h, http.MethodGet, "/canvas.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
}

func TestBadPointBody(t *testing.T) {
	h, _ := newTestHandler(t, &stubRecognizer{})
	req := httptest.NewRequest(http.MethodPost, "/pointer/down", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
