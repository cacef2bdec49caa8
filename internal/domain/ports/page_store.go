package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matchdesk/cms/pkg/models"
)

// PageStore provides access to pages, their layouts and the theme override audit trail.
// This interface enables testing the page services without a database.
type PageStore interface {
	// FindPageByID returns the page, or nil when it does not exist.
	FindPageByID(ctx context.Context, id string) (*models.Page, error)

	// FindPageBySlug returns the page, or nil when it does not exist.
	FindPageBySlug(ctx context.Context, slug string) (*models.Page, error)

	// ListPages returns all pages, newest first.
	ListPages(ctx context.Context) ([]*models.Page, error)

	InsertPage(ctx context.Context, p *models.Page) error

	// DeletePage reports whether a row was removed.
	DeletePage(ctx context.Context, id string) (bool, error)

	// UpdateThemeOverrides writes overrides only if the page is still at expectedVersion.
	// It reports false when another writer got there first.
	UpdateThemeOverrides(ctx context.Context, pageID string, overrides models.ThemeOverrides, actor *string, expectedVersion int64, now time.Time) (bool, error)

	// FindLatestLayout returns the most recently updated layout row, or nil.
	FindLatestLayout(ctx context.Context, pageID string) (*models.PageLayoutRow, error)

	UpsertLayout(ctx context.Context, id, pageID string, body json.RawMessage, now time.Time) error

	InsertAudit(ctx context.Context, e *models.AuditEntry) error

	// ListAudit returns up to limit entries, newest first.
	ListAudit(ctx context.Context, pageID string, limit int) ([]*models.AuditEntry, error)
}

// Transactor runs fn inside a transaction carried by the context handed to fn.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
