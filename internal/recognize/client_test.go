package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Path      string
	RequestID string
	Body      request
}

func backend(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body request
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		seen = append(seen, recorded{Path: r.URL.Path, RequestID: r.Header.Get("X-Request-Id"), Body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

type countingObserver struct {
	outcomes []string
}

func (o *countingObserver) ObserveRecognition(outcome string, _ time.Duration, _ int) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestSubmitParsesOrderedItems(t *testing.T) {
	srv, seen := backend(t, http.StatusOK, `{"message":"Image processed","status":"success","data":[
		{"expr":"x","result":"5","assign":true},
		{"expr":"2+2","result":4,"assign":false},
		{"expr":"1<2","result":true}
	]}`)
	obs := &countingObserver{}
	c := NewClient(srv.URL+"/", WithObserver(obs))

	items, err := c.Submit(context.Background(), "data:image/png;base64,AAAA", map[string]string{"y": "2"})
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Expr: "x", Result: "5", Assign: true},
		{Expr: "2+2", Result: "4"},
		{Expr: "1<2", Result: "true"},
	}, items)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "/calculate", got.Path)
	assert.Equal(t, "data:image/png;base64,AAAA", got.Body.Image)
	assert.Equal(t, map[string]string{"y": "2"}, got.Body.DictOfVars)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, []string{"ok"}, obs.outcomes)
}

func TestSubmitSendsEmptyDictNotNull(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).Submit(context.Background(), "img", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.JSONEq(t, `{}`, string(raw["dict_of_vars"]))
}

func TestSubmitFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		reply  string
		op     string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`, "status"},
		{"not found", http.StatusNotFound, ``, "status"},
		{"malformed json", http.StatusOK, `{"data":[`, "decode"},
		{"missing data", http.StatusOK, `{"message":"ok"}`, "decode"},
		{"object result", http.StatusOK, `{"data":[{"expr":"x","result":{"a":1}}]}`, "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := backend(t, tc.status, tc.reply)
			items, err := NewClient(srv.URL).Submit(context.Background(), "img", nil)
			require.Error(t, err)
			assert.Nil(t, items)
			assert.ErrorIs(t, err, ErrRecognition)

			var rerr *Error
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tc.op, rerr.Op)
			assert.NotEmpty(t, rerr.RequestID)
		})
	}
}

func TestSubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, WithTimeout(time.Second)).Submit(context.Background(), "img", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecognition)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "request", rerr.Op)
	assert.Zero(t, rerr.StatusCode)
}

func TestSubmitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).Submit(ctx, "img", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecognition)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCustomPath(t *testing.T) {
	srv, seen := backend(t, http.StatusOK, `{"data":[]}`)
	_, err := NewClient(srv.URL, WithPath("/v2/eval")).Submit(context.Background(), "img", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v2/eval", (*seen)[0].Path)
}
