package recording

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// Recorder is an http.RoundTripper that forwards requests to Next and
// records every completed exchange in Store.
type Recorder struct {
	Store *Store
	// Next performs the real exchange. Nil means http.DefaultTransport.
	Next http.RoundTripper

	seqs sequencer
}

// NewRecorder creates a recorder in front of next.
func NewRecorder(store *Store, next http.RoundTripper) *Recorder {
	return &Recorder{Store: store, Next: next}
}

// RoundTrip implements http.RoundTripper.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	id, raw, err := identify(req)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	if raw != nil {
		out.Body = io.NopCloser(bytes.NewReader(raw))
	}

	next := r.Next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("record %s %s: read response: %w", id.method, id.command, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	ex := Exchange{
		Key:         id.key,
		Seq:         r.seqs.next(id.key),
		Method:      id.method,
		Command:     id.command,
		RequestBody: id.body,
		Status:      resp.StatusCode,
		Header:      resp.Header.Clone(),
		Body:        data,
		RequestID:   req.Header.Get("X-Request-ID"),
	}
	if err := r.Store.Write(req.Context(), ex); err != nil {
		return nil, fmt.Errorf("record %s %s: %w", id.method, id.command, err)
	}
	return resp, nil
}

// Replayer is an http.RoundTripper that answers requests from a Store.
// A request that was never recorded, or was recorded fewer times than it
// is replayed, fails with *UnknownRequestError.
type Replayer struct {
	Store *Store

	seqs sequencer
}

// NewReplayer creates a replayer over store.
func NewReplayer(store *Store) *Replayer {
	return &Replayer{Store: store}
}

// UnknownRequestError reports a replayed request with no recording.
type UnknownRequestError struct {
	Method  string
	Command string
	Seq     int
}

func (e *UnknownRequestError) Error() string {
	return fmt.Sprintf("replay: no recording for %s %s (occurrence %d)", e.Method, e.Command, e.Seq+1)
}

// RoundTrip implements http.RoundTripper.
func (r *Replayer) RoundTrip(req *http.Request) (*http.Response, error) {
	id, _, err := identify(req)
	if err != nil {
		return nil, err
	}

	seq := r.seqs.next(id.key)
	ex, ok, err := r.Store.Lookup(req.Context(), id.key, seq)
	if err != nil {
		return nil, fmt.Errorf("replay %s %s: %w", id.method, id.command, err)
	}
	if !ok {
		return nil, &UnknownRequestError{Method: id.method, Command: id.command, Seq: seq}
	}

	header := ex.Header
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", ex.Status, http.StatusText(ex.Status)),
		StatusCode:    ex.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(ex.Body)),
		ContentLength: int64(len(ex.Body)),
		Request:       req,
	}, nil
}

type identity struct {
	key     string
	method  string
	command string
	body    any
}

// identify computes the request key. The body is read and returned so the
// caller can forward it.
func identify(req *http.Request) (identity, []byte, error) {
	id := identity{method: req.Method, command: req.URL.RequestURI()}

	var raw []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		raw, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return identity{}, nil, fmt.Errorf("read request body: %w", err)
		}
		if id.body, err = ir.DecodeJSON(raw); err != nil {
			return identity{}, nil, fmt.Errorf("%s %s: %w", id.method, id.command, err)
		}
	}

	key, err := ir.RequestKey(id.method, id.command, id.body)
	if err != nil {
		return identity{}, nil, err
	}
	id.key = key
	return id, raw, nil
}

// sequencer counts occurrences per request key.
type sequencer struct {
	mu sync.Mutex
	n  map[string]int
}

func (s *sequencer) next(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == nil {
		s.n = make(map[string]int)
	}
	seq := s.n[key]
	s.n[key]++
	return seq
}
