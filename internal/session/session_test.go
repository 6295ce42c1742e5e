package session

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mathboard/internal/bbox"
	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/logging"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/recognize"
	"github.com/example/mathboard/internal/vars"
)

type backendCall struct {
	Image string            `json:"image"`
	Vars  map[string]string `json:"dict_of_vars"`
}

// fakeBackend answers each request with the next reply in line.
type fakeBackend struct {
	mu      sync.Mutex
	replies []string
	calls   []backendCall
	srv     *httptest.Server
}

func newFakeBackend(t *testing.T, replies ...string) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{replies: replies}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var call backendCall
		_ = json.Unmarshal(raw, &call)
		fb.mu.Lock()
		fb.calls = append(fb.calls, call)
		reply := `{"data":[]}`
		if len(fb.replies) > 0 {
			reply, fb.replies = fb.replies[0], fb.replies[1:]
		}
		fb.mu.Unlock()
		if reply == "500" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) Calls() []backendCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]backendCall(nil), fb.calls...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []string
	errs    []error
}

func (n *recordingNotifier) Result(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, text)
}

func (n *recordingNotifier) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func newBoard(t *testing.T, rec Recognizer, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithDisplayDelay(time.Millisecond), WithLogger(logging.NewNop())}, opts...)
	return New(canvas.New(200, 300), vars.New(), overlay.NewManager(), rec, opts...)
}

func scribble(s *Session, from, to image.Point) {
	s.PointerDown(from)
	s.PointerMove(to)
	s.PointerUp()
}

func TestEmptySubmitSendsNothing(t *testing.T) {
	fb := newFakeBackend(t)
	s := newBoard(t, recognize.NewClient(fb.srv.URL))

	err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCanvas)
	s.Wait()
	assert.Empty(t, fb.Calls())
	assert.Zero(t, s.Overlay().Len())
}

func TestResultAnnotatedAtDrawingCentre(t *testing.T) {
	fb := newFakeBackend(t, `{"data":[{"expr":"2+2","result":"4","assign":false}]}`)
	notes := &recordingNotifier{}
	s := newBoard(t, recognize.NewClient(fb.srv.URL), WithNotifier(notes))

	scribble(s, image.Pt(20, 40), image.Pt(80, 60))
	want, ok := bbox.Locate(s.Canvas().Snapshot().Image())
	require.True(t, ok)

	require.NoError(t, s.Submit(context.Background()))
	s.Wait()

	list := s.Overlay().List()
	require.Len(t, list, 1)
	assert.Equal(t, "2+2 = 4", list[0].Text())
	assert.Equal(t, want.Center(), list[0].Position)
	assert.Zero(t, s.Store().Len())
	assert.Equal(t, []string{"2+2 = 4"}, notes.results)

	_, found := bbox.Locate(s.Canvas().Snapshot().Image())
	assert.False(t, found, "canvas cleared after submit")

	calls := fb.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Image, "data:image/png;base64,")
	assert.Equal(t, map[string]string{}, calls[0].Vars)
}

func TestAssignmentCarriedIntoNextRequest(t *testing.T) {
	fb := newFakeBackend(t,
		`{"data":[{"expr":"x","result":"5","assign":true}]}`,
		`{"data":[{"expr":"x+1","result":"6","assign":false}]}`,
	)
	s := newBoard(t, recognize.NewClient(fb.srv.URL))

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()
	v, ok := s.Store().Get("x")
	require.True(t, ok)
	assert.Equal(t, "5", v)

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()

	calls := fb.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]string{"x": "5"}, calls[1].Vars)
	assert.Equal(t, 2, s.Overlay().Len())
}

func TestMovedAnnotationKeepsPosition(t *testing.T) {
	fb := newFakeBackend(t,
		`{"data":[{"expr":"1+1","result":"2"}]}`,
		`{"data":[{"expr":"3*3","result":"9"}]}`,
	)
	s := newBoard(t, recognize.NewClient(fb.srv.URL))

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()
	first := s.Overlay().List()[0]
	require.NoError(t, s.MoveAnnotation(first.ID, image.Pt(150, 250)))

	scribble(s, image.Pt(100, 100), image.Pt(120, 140))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()

	list := s.Overlay().List()
	require.Len(t, list, 2)
	assert.Equal(t, image.Pt(150, 250), list[0].Position)
	assert.NotEqual(t, image.Pt(150, 250), list[1].Position)
}

func TestBatchSharesPositionInOrder(t *testing.T) {
	fb := newFakeBackend(t, `{"data":[
		{"expr":"a","result":"1","assign":true},
		{"expr":"b","result":"2","assign":true},
		{"expr":"a+b","result":"3"}
	]}`)
	s := newBoard(t, recognize.NewClient(fb.srv.URL))

	scribble(s, image.Pt(50, 50), image.Pt(70, 90))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()

	list := s.Overlay().List()
	require.Len(t, list, 3)
	for i, want := range []string{"a = 1", "b = 2", "a+b = 3"} {
		assert.Equal(t, want, list[i].Text())
		assert.Equal(t, list[0].Position, list[i].Position)
	}
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, s.Store().Snapshot())
}

func TestFailureLeavesStateUntouched(t *testing.T) {
	fb := newFakeBackend(t,
		`{"data":[{"expr":"x","result":"5","assign":true}]}`,
		"500",
	)
	notes := &recordingNotifier{}
	s := newBoard(t, recognize.NewClient(fb.srv.URL), WithNotifier(notes))

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	err := s.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, recognize.ErrRecognition)
	s.Wait()

	assert.Equal(t, 1, s.Overlay().Len())
	assert.Equal(t, map[string]string{"x": "5"}, s.Store().Snapshot())
	_, found := bbox.Locate(s.Canvas().Snapshot().Image())
	assert.False(t, found, "canvas stays cleared")
	require.Len(t, notes.errs, 1)
}

func TestResetClearsEverythingTogether(t *testing.T) {
	fb := newFakeBackend(t, `{"data":[{"expr":"x","result":"5","assign":true}]}`)
	s := newBoard(t, recognize.NewClient(fb.srv.URL))

	scribble(s, image.Pt(10, 10), image.Pt(30, 30))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()
	scribble(s, image.Pt(40, 40), image.Pt(60, 60))

	before := s.View().Epoch
	s.Reset()
	v := s.View()
	assert.Equal(t, before+1, v.Epoch)
	assert.Empty(t, v.Annotations)
	assert.Empty(t, v.Variables)
	assert.Equal(t, Idle, v.State)
	_, found := bbox.Locate(s.Canvas().Snapshot().Image())
	assert.False(t, found)
}

// gate blocks every call until released.
type gate struct {
	release chan struct{}
	started chan struct{}
	items   []recognize.Item
}

func (g *gate) Submit(ctx context.Context, _ string, _ map[string]string) ([]recognize.Item, error) {
	close(g.started)
	select {
	case <-g.release:
		return g.items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLateResponseAfterResetIsDropped(t *testing.T) {
	g := &gate{
		release: make(chan struct{}),
		started: make(chan struct{}),
		items:   []recognize.Item{{Expr: "x", Result: "5", Assign: true}},
	}
	s := newBoard(t, g)
	scribble(s, image.Pt(10, 10), image.Pt(30, 30))

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	<-g.started
	assert.Equal(t, 1, s.View().Pending)
	s.Reset()
	close(g.release)

	require.NoError(t, <-done)
	s.Wait()
	assert.Zero(t, s.Overlay().Len())
	assert.Zero(t, s.Store().Len())
	assert.Zero(t, s.View().Pending)
}

type staticRecognizer []recognize.Item

func (r staticRecognizer) Submit(context.Context, string, map[string]string) ([]recognize.Item, error) {
	return r, nil
}

func TestResetDropsPendingDisplays(t *testing.T) {
	items := staticRecognizer{{Expr: "a", Result: "1"}, {Expr: "b", Result: "2"}, {Expr: "c", Result: "3"}}
	s := newBoard(t, items, WithDisplayDelay(40*time.Millisecond))
	scribble(s, image.Pt(10, 10), image.Pt(30, 30))

	require.NoError(t, s.Submit(context.Background()))
	assert.Zero(t, s.Overlay().Len(), "first item waits one delay")
	s.Reset()
	s.Wait()
	assert.Zero(t, s.Overlay().Len())
}

func TestAllowEmptyUsesFallbackAnchor(t *testing.T) {
	s := newBoard(t, staticRecognizer{{Expr: "0", Result: "0"}}, WithAllowEmpty(true))
	require.NoError(t, s.Submit(context.Background()))
	s.Wait()
	list := s.Overlay().List()
	require.Len(t, list, 1)
	assert.Equal(t, bbox.DefaultAnchor, list[0].Position)
}

func TestPointerStates(t *testing.T) {
	s := newBoard(t, staticRecognizer{})
	assert.Equal(t, Idle, s.State())

	s.PointerMove(image.Pt(5, 5))
	_, found := bbox.Locate(s.Canvas().Snapshot().Image())
	assert.False(t, found, "moves while idle do not draw")

	s.PointerDown(image.Pt(5, 5))
	assert.Equal(t, Drawing, s.State())
	s.PointerMove(image.Pt(25, 5))
	s.PointerLeave()
	assert.Equal(t, Idle, s.State())
	_, found = bbox.Locate(s.Canvas().Snapshot().Image())
	assert.True(t, found)
}

func TestNoDrawingContextStaysIdle(t *testing.T) {
	s := New(canvas.New(0, 0), vars.New(), overlay.NewManager(), staticRecognizer{}, WithLogger(logging.NewNop()))
	s.PointerDown(image.Pt(1, 1))
	assert.Equal(t, Idle, s.State())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrEmptyCanvas)
}

func TestSubmitSnapshotLeavesBoard(t *testing.T) {
	s := newBoard(t, staticRecognizer{{Expr: "y", Result: "2", Assign: true}})
	scribble(s, image.Pt(10, 10), image.Pt(30, 30))

	src := canvas.New(40, 40)
	require.NoError(t, src.BeginStroke(image.Pt(5, 5)))
	src.ExtendStroke(image.Pt(20, 20))
	require.NoError(t, s.SubmitSnapshot(context.Background(), src.Snapshot()))
	s.Wait()

	_, found := bbox.Locate(s.Canvas().Snapshot().Image())
	assert.True(t, found, "board drawing untouched")
	assert.Equal(t, 1, s.Overlay().Len())

	err := s.SubmitSnapshot(context.Background(), canvas.NewSnapshot(image.NewRGBA(image.Rect(0, 0, 5, 5))))
	assert.True(t, errors.Is(err, ErrEmptyCanvas))
}
