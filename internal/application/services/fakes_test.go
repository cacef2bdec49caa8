package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/matchdesk/cms/internal/infrastructure/cache"
	"github.com/matchdesk/cms/pkg/models"
)

// fakePageStore is an in-memory PageStore with the same compare-and-set semantics as the
// SQL repository.
type fakePageStore struct {
	mu      sync.Mutex
	pages   map[string]*models.Page
	layouts map[string]*models.PageLayoutRow
	audit   []*models.AuditEntry

	// beforeUpdate runs before every overrides compare-and-set and may move the version on.
	beforeUpdate func(pageID string)

	findErr   error
	listErr   error
	auditErr  error
	insertErr error

	updates int
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{
		pages:   map[string]*models.Page{},
		layouts: map[string]*models.PageLayoutRow{},
	}
}

func (f *fakePageStore) addPage(p *models.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ThemeOverrides == nil {
		p.ThemeOverrides = models.ThemeOverrides{}
	}
	f.pages[p.ID] = p
}

func (f *fakePageStore) bumpVersion(pageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageID].OverridesVersion++
}

func copyPage(p *models.Page) *models.Page {
	cp := *p
	cp.ThemeOverrides = p.ThemeOverrides.Clone()
	return &cp
}

func (f *fakePageStore) FindPageByID(_ context.Context, id string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.pages[id]
	if !ok {
		return nil, nil
	}
	return copyPage(p), nil
}

func (f *fakePageStore) FindPageBySlug(_ context.Context, slug string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.Slug == slug {
			return copyPage(p), nil
		}
	}
	return nil, nil
}

func (f *fakePageStore) ListPages(context.Context) ([]*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Page, 0, len(f.pages))
	for _, p := range f.pages {
		out = append(out, copyPage(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePageStore) InsertPage(_ context.Context, p *models.Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.pages[p.ID] = copyPage(p)
	return nil
}

func (f *fakePageStore) DeletePage(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pages[id]; !ok {
		return false, nil
	}
	delete(f.pages, id)
	delete(f.layouts, id)
	return true, nil
}

func (f *fakePageStore) UpdateThemeOverrides(_ context.Context, pageID string, overrides models.ThemeOverrides, actor *string, expectedVersion int64, now time.Time) (bool, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate(pageID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	p, ok := f.pages[pageID]
	if !ok || p.OverridesVersion != expectedVersion {
		return false, nil
	}
	p.ThemeOverrides = overrides.Clone()
	p.UpdatedBy = actor
	p.UpdatedAt = now
	p.OverridesVersion++
	return true, nil
}

func (f *fakePageStore) FindLatestLayout(_ context.Context, pageID string) (*models.PageLayoutRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.layouts[pageID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakePageStore) UpsertLayout(_ context.Context, id, pageID string, body json.RawMessage, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.layouts[pageID]; ok {
		id = row.ID
	}
	f.layouts[pageID] = &models.PageLayoutRow{
		ID:         id,
		PageID:     pageID,
		LayoutJSON: append(json.RawMessage(nil), body...),
		UpdatedAt:  now,
	}
	return nil
}

func (f *fakePageStore) InsertAudit(_ context.Context, e *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audit = append(f.audit, e)
	return nil
}

func (f *fakePageStore) ListAudit(_ context.Context, pageID string, limit int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return nil, f.auditErr
	}
	out := make([]*models.AuditEntry, 0)
	for i := len(f.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if f.audit[i].PageID == pageID {
			out = append(out, f.audit[i])
		}
	}
	return out, nil
}

// inlineTx runs fn directly and counts transactions.
type inlineTx struct {
	count int
}

func (t *inlineTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.count++
	return fn(ctx)
}

// memoryCache is a LayoutCache backed by maps, with the same generation rule as the
// Redis cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.PageLayoutResult
	gens    map[string]cache.Generation
	stored  map[string]cache.Generation
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: map[string]*models.PageLayoutResult{},
		gens:    map[string]cache.Generation{},
		stored:  map[string]cache.Generation{},
	}
}

func (c *memoryCache) Get(_ context.Context, pageID string) (*models.PageLayoutResult, cache.Generation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[pageID]
	r, ok := c.entries[pageID]
	if !ok || c.stored[pageID] != gen {
		return nil, gen, false
	}
	c.hits++
	return r, gen, true
}

func (c *memoryCache) Set(_ context.Context, pageID string, gen cache.Generation, r *models.PageLayoutResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gens[pageID] {
		return
	}
	c.entries[pageID] = r
	c.stored[pageID] = gen
}

func (c *memoryCache) Invalidate(_ context.Context, pageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[pageID]++
	delete(c.entries, pageID)
	delete(c.stored, pageID)
}

// layoutHookStore runs afterRead once, right after a layout row has been read.
type layoutHookStore struct {
	*fakePageStore
	afterRead func()
}

func (s *layoutHookStore) FindLatestLayout(ctx context.Context, pageID string) (*models.PageLayoutRow, error) {
	row, err := s.fakePageStore.FindLatestLayout(ctx, pageID)
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return row, err
}
