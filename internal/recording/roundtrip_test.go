package recording_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/recording"
	"github.com/PDNemesis/Simple.OData.Client/internal/testutil"
	"github.com/PDNemesis/Simple.OData.Client/internal/transport"
)

func openStore(t *testing.T) *recording.Store {
	t.Helper()
	s, err := recording.Open(filepath.Join(t.TempDir(), "exchanges.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newClient(t *testing.T, baseURL string, rt http.RoundTripper) *transport.Client {
	t.Helper()
	c, err := transport.New(baseURL,
		transport.WithHTTPClient(&http.Client{Transport: rt}),
		transport.WithIDGenerator(testutil.NewSequenceIDGenerator("req")),
		transport.WithMetrics(nil),
	)
	require.NoError(t, err)
	return c
}

func get(segments ...string) transport.Request {
	return transport.Request{Command: command.Text{Segments: segments}}
}

func TestRecordThenReplay(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		case r.URL.Path == "/svc/Missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			fmt.Fprintf(w, `{"hit":%d}`, n)
		}
	}))
	base := srv.URL + "/svc"

	store := openStore(t)
	ctx := context.Background()
	recorder := newClient(t, base, recording.NewRecorder(store, srv.Client().Transport))

	first, err := recorder.Do(ctx, get("Products"))
	require.NoError(t, err)
	second, err := recorder.Do(ctx, get("Products"))
	require.NoError(t, err)
	created, err := recorder.Do(ctx, transport.Request{
		Operation: command.Insert,
		Command:   command.Text{Segments: []string{"Products"}},
		Body:      map[string]any{"ProductName": "Chai"},
	})
	require.NoError(t, err)
	_, err = recorder.Do(ctx, get("Missing"))
	require.Error(t, err)

	assert.Equal(t, `{"hit":1}`, string(first.Body))
	assert.Equal(t, `{"hit":2}`, string(second.Body))
	assert.JSONEq(t, `{"ProductName":"Chai"}`, string(created.Body))
	assert.Equal(t, int32(4), hits.Load())

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int{0, 1, 0, 0}, []int{all[0].Seq, all[1].Seq, all[2].Seq, all[3].Seq})
	assert.Equal(t, "req-1", all[0].RequestID)
	assert.Equal(t, map[string]any{"ProductName": "Chai"}, all[2].RequestBody)

	srv.Close()

	replayer := newClient(t, base, recording.NewReplayer(store))

	resp, err := replayer.Do(ctx, get("Products"))
	require.NoError(t, err)
	assert.Equal(t, `{"hit":1}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, err = replayer.Do(ctx, get("Products"))
	require.NoError(t, err)
	assert.Equal(t, `{"hit":2}`, string(resp.Body))

	resp, err = replayer.Do(ctx, transport.Request{
		Operation: command.Insert,
		Command:   command.Text{Segments: []string{"Products"}},
		Body:      map[string]any{"ProductName": "Chai"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = replayer.Do(ctx, get("Missing"))
	var serr *transport.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = replayer.Do(ctx, get("Products"))
	var unknown *recording.UnknownRequestError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 2, unknown.Seq)
	assert.Equal(t, "/svc/Products", unknown.Command)
}

func TestReplayMatchesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := openStore(t)
	ctx := context.Background()
	recorder := newClient(t, srv.URL, recording.NewRecorder(store, srv.Client().Transport))
	_, err := recorder.Do(ctx, transport.Request{
		Operation: command.Insert,
		Command:   command.Text{Segments: []string{"Products"}},
		Body:      map[string]any{"ProductName": "Chai"},
	})
	require.NoError(t, err)

	replayer := newClient(t, srv.URL, recording.NewReplayer(store))
	_, err = replayer.Do(ctx, transport.Request{
		Operation: command.Insert,
		Command:   command.Text{Segments: []string{"Products"}},
		Body:      map[string]any{"ProductName": "Chang"},
	})
	var unknown *recording.UnknownRequestError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, http.MethodPost, unknown.Method)
	assert.Contains(t, unknown.Error(), "occurrence 1")
}

func TestReplayKeysIgnoreRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	store := openStore(t)
	ctx := context.Background()
	recorder := newClient(t, srv.URL, recording.NewRecorder(store, srv.Client().Transport))
	_, err := recorder.Do(ctx, get("Products(1)"))
	require.NoError(t, err)

	c, err := transport.New(srv.URL,
		transport.WithHTTPClient(&http.Client{Transport: recording.NewReplayer(store)}),
		transport.WithIDGenerator(testutil.NewFixedIDGenerator("other")),
		transport.WithMetrics(nil),
	)
	require.NoError(t, err)
	resp, err := c.Do(ctx, get("Products(1)"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Body))
}
