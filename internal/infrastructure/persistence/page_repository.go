package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/models"
)

const pageColumns = "id, slug, title, is_published, created_at, updated_at, updated_by, theme_overrides, overrides_version"

// PageRepository stores pages, their layout rows and the theme override audit trail.
// Every method runs on the transaction carried by ctx when there is one.
type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPage(row rowScanner) (*models.Page, error) {
	var p models.Page
	var updatedBy sql.NullString
	var overrides []byte
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &updatedBy, &overrides, &p.OverridesVersion); err != nil {
		return nil, err
	}
	p.UpdatedBy = models.NullStringToPtr(updatedBy)
	p.ThemeOverrides = models.ThemeOverrides{}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &p.ThemeOverrides); err != nil {
			return nil, fmt.Errorf("decode theme_overrides of page %s: %w", p.ID, err)
		}
		if p.ThemeOverrides == nil {
			p.ThemeOverrides = models.ThemeOverrides{}
		}
	}
	return &p, nil
}

func (r *PageRepository) findPage(ctx context.Context, where string, arg interface{}) (*models.Page, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", pageColumns, TablePages, where)
	p, err := scanPage(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindPageByID returns nil, nil when the page does not exist.
func (r *PageRepository) FindPageByID(ctx context.Context, id string) (*models.Page, error) {
	return r.findPage(ctx, "id", id)
}

// FindPageBySlug returns nil, nil when no page has the slug.
func (r *PageRepository) FindPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	return r.findPage(ctx, "slug", slug)
}

// ListPages returns every page, newest first.
func (r *PageRepository) ListPages(ctx context.Context) ([]*models.Page, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", pageColumns, TablePages)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]*models.Page, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// InsertPage creates a page row. A duplicate slug is reported as a ConflictError.
func (r *PageRepository) InsertPage(ctx context.Context, p *models.Page) error {
	overrides, err := json.Marshal(p.ThemeOverrides.Clone())
	if err != nil {
		return fmt.Errorf("encode theme_overrides: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", TablePages, pageColumns)
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.Slug, p.Title, p.IsPublished, p.CreatedAt, p.UpdatedAt,
		models.NewNullString(p.UpdatedBy), string(overrides), p.OverridesVersion)
	if IsDuplicateEntry(err) {
		return apperrors.NewConflictError("page", "slug", p.Slug)
	}
	return err
}

// DeletePage removes a page. Layout and audit rows go with it through ON DELETE CASCADE.
func (r *PageRepository) DeletePage(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", TablePages)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateThemeOverrides replaces the overrides document if the page is still at
// expectedVersion. It reports whether the row was updated.
func (r *PageRepository) UpdateThemeOverrides(ctx context.Context, pageID string, overrides models.ThemeOverrides, actor *string, expectedVersion int64, now time.Time) (bool, error) {
	doc, err := json.Marshal(overrides.Clone())
	if err != nil {
		return false, fmt.Errorf("encode theme_overrides: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s
		SET theme_overrides = ?, updated_by = ?, updated_at = ?, overrides_version = overrides_version + 1
		WHERE id = ? AND overrides_version = ?`, TablePages)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, string(doc), models.NewNullString(actor), now, pageID, expectedVersion)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindLatestLayout returns the most recently updated layout row of a page, or nil.
func (r *PageRepository) FindLatestLayout(ctx context.Context, pageID string) (*models.PageLayoutRow, error) {
	query := fmt.Sprintf("SELECT id, page_id, layout_json, updated_at FROM %s WHERE page_id = ? ORDER BY updated_at DESC LIMIT 1", TablePageLayouts)
	var row models.PageLayoutRow
	var body []byte
	err := conn(ctx, r.db).QueryRowContext(ctx, query, pageID).Scan(&row.ID, &row.PageID, &body, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.LayoutJSON = json.RawMessage(body)
	return &row, nil
}

// UpsertLayout writes the layout body of a page, replacing the existing row.
func (r *PageRepository) UpsertLayout(ctx context.Context, id, pageID string, body json.RawMessage, now time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, page_id, layout_json, updated_at) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE layout_json = VALUES(layout_json), updated_at = VALUES(updated_at)`, TablePageLayouts)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, id, pageID, string(body), now)
	return err
}

// InsertAudit appends one audit entry.
func (r *PageRepository) InsertAudit(ctx context.Context, e *models.AuditEntry) error {
	var oldDoc interface{}
	if e.OldOverrides != nil {
		raw, err := json.Marshal(e.OldOverrides)
		if err != nil {
			return fmt.Errorf("encode old_overrides: %w", err)
		}
		oldDoc = string(raw)
	}
	newDoc, err := json.Marshal(e.NewOverrides.Clone())
	if err != nil {
		return fmt.Errorf("encode new_overrides: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, page_id, user_id, old_overrides, new_overrides, change_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, TableThemeAudit)
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		e.ID, e.PageID, models.NewNullString(e.UserID), oldDoc, string(newDoc), e.ChangeDescription, e.CreatedAt)
	return err
}

// ListAudit returns up to limit audit entries of a page, newest first.
func (r *PageRepository) ListAudit(ctx context.Context, pageID string, limit int) ([]*models.AuditEntry, error) {
	query := fmt.Sprintf(`SELECT id, page_id, user_id, old_overrides, new_overrides, change_description, created_at
		FROM %s WHERE page_id = ? ORDER BY created_at DESC LIMIT ?`, TableThemeAudit)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pageID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0)
	for rows.Next() {
		var e models.AuditEntry
		var userID, description sql.NullString
		var oldDoc, newDoc []byte
		if err := rows.Scan(&e.ID, &e.PageID, &userID, &oldDoc, &newDoc, &description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = models.NullStringToPtr(userID)
		e.ChangeDescription = description.String
		if len(oldDoc) > 0 {
			if err := json.Unmarshal(oldDoc, &e.OldOverrides); err != nil {
				return nil, fmt.Errorf("decode old_overrides of audit %s: %w", e.ID, err)
			}
		}
		e.NewOverrides = models.ThemeOverrides{}
		if len(newDoc) > 0 {
			if err := json.Unmarshal(newDoc, &e.NewOverrides); err != nil {
				return nil, fmt.Errorf("decode new_overrides of audit %s: %w", e.ID, err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
