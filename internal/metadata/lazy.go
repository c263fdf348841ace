package metadata

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads a complete resource set, typically by downloading and
// parsing the service's $metadata document.
type FetchFunc func(ctx context.Context) (Resolver, error)

// Lazy defers loading metadata until the first Resolve.
//
// Concurrent first calls share a single fetch. The fetch is detached from
// the caller that started it, so a cancelled caller does not fail the
// others. A successful result is cached until Reset; a failed fetch is not
// cached, so the next call retries.
type Lazy struct {
	fetch  FetchFunc
	flight singleflight.Group

	mu     sync.RWMutex
	loaded Resolver
	gen    uint64 // bumped by Reset; a fetch from an older generation is not cached
}

var errNilResolver = errors.New("metadata: fetch returned no resolver")

// NewLazy creates a Lazy resolver around fetch.
func NewLazy(fetch FetchFunc) *Lazy {
	return &Lazy{fetch: fetch}
}

// Resolve loads metadata if needed and resolves name against it.
func (l *Lazy) Resolve(ctx context.Context, name string) (*Resource, error) {
	r, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, name)
}

// Loaded reports whether metadata has been fetched.
func (l *Lazy) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded != nil
}

// Reset drops the cached metadata; the next Resolve fetches again.
func (l *Lazy) Reset() {
	l.mu.Lock()
	l.loaded = nil
	l.gen++
	l.mu.Unlock()
	l.flight.Forget("metadata")
}

func (l *Lazy) load(ctx context.Context) (Resolver, error) {
	l.mu.RLock()
	r, gen := l.loaded, l.gen
	l.mu.RUnlock()
	if r != nil {
		return r, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan("metadata", func() (any, error) {
		r, err := l.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, errNilResolver
		}
		l.mu.Lock()
		if l.gen == gen {
			l.loaded = r
		}
		l.mu.Unlock()
		return r, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Resolver), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
