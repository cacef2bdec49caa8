package layouts

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy loads its underlying source on first use and caches the table. Concurrent first
// callers share a single load. A failed load is not cached.
type Lazy struct {
	src   Source
	group singleflight.Group

	mu    sync.RWMutex
	table Table
}

func NewLazy(src Source) *Lazy {
	return &Lazy{src: src}
}

func (l *Lazy) Load(ctx context.Context) (Table, error) {
	l.mu.RLock()
	table := l.table
	l.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	v, err, _ := l.group.Do("load", func() (interface{}, error) {
		t, err := l.src.Load(ctx)
		if err != nil {
			return nil, err
		}
		l.Set(t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Table), nil
}

// Set replaces the cached table.
func (l *Lazy) Set(t Table) {
	if t == nil {
		t = Table{}
	}
	l.mu.Lock()
	l.table = t
	l.mu.Unlock()
}

// Invalidate drops the cached table so the next Load reads the source again.
func (l *Lazy) Invalidate() {
	l.mu.Lock()
	l.table = nil
	l.mu.Unlock()
}
