package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.opentelemetry.io/otel/attribute"

	"github.com/matchdesk/cms/internal/domain/ports"
	"github.com/matchdesk/cms/internal/infrastructure/cache"
	"github.com/matchdesk/cms/internal/infrastructure/persistence"
	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/utils"
	"github.com/matchdesk/cms/pkg/validator"
)

const (
	// DefaultAuditLimit is the number of audit entries returned when no limit is given.
	DefaultAuditLimit = 50
	maxAuditLimit     = 500

	defaultOverrideRetries = 5
)

// errOverridesRaced is returned inside a transaction when the compare-and-set on
// overrides_version found the page already moved on.
var errOverridesRaced = errors.New("theme overrides changed concurrently")

// CreatePageInput carries the fields of a new page.
type CreatePageInput struct {
	Slug           string                `json:"slug"`
	Title          string                `json:"title"`
	IsPublished    bool                  `json:"is_published"`
	Layout         json.RawMessage       `json:"layout_json,omitempty"`
	ThemeOverrides models.ThemeOverrides `json:"theme_overrides,omitempty"`
}

// PageLayoutService owns pages, their layout bodies and their theme overrides.
type PageLayoutService struct {
	pages      ports.PageStore
	tx         ports.Transactor
	cache      cache.LayoutCache
	validator  *validator.Registry
	log        *logger.Logger
	now        func() time.Time
	maxRetries int
}

// PageLayoutOption configures a PageLayoutService.
type PageLayoutOption func(*PageLayoutService)

// WithLayoutCache puts a read-through cache in front of LoadPageLayout.
func WithLayoutCache(c cache.LayoutCache) PageLayoutOption {
	return func(s *PageLayoutService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PageLayoutOption {
	return func(s *PageLayoutService) { s.now = now }
}

// WithOverrideRetries bounds how often a theme write retries after losing a race.
func WithOverrideRetries(n int) PageLayoutOption {
	return func(s *PageLayoutService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewPageLayoutService creates a PageLayoutService
func NewPageLayoutService(pages ports.PageStore, tx ports.Transactor, log *logger.Logger, opts ...PageLayoutOption) *PageLayoutService {
	s := &PageLayoutService{
		pages:      pages,
		tx:         tx,
		cache:      cache.Noop{},
		validator:  validator.GetRegistry(),
		log:        log,
		now:        time.Now,
		maxRetries: defaultOverrideRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadPageLayout returns the page with its most recent layout body and theme overrides.
// It returns nil, nil for an unknown page. A page without a saved layout gets "{}". A
// result is cached under the generation seen before the database read, so a write that
// commits in between is never hidden behind it.
func (s *PageLayoutService) LoadPageLayout(ctx context.Context, pageID string) (res *models.PageLayoutResult, err error) {
	ctx, span := startSpan(ctx, "PageLayoutService.LoadPageLayout", attribute.String("page.id", pageID))
	defer func() { endSpan(span, err) }()

	cached, gen, ok := s.cache.Get(ctx, pageID)
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	page, err := s.pages.FindPageByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", pageID, err)
	}
	if page == nil {
		return nil, nil
	}

	row, err := s.pages.FindLatestLayout(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout of page %s: %w", pageID, err)
	}

	res = &models.PageLayoutResult{
		Layout:         append(json.RawMessage(nil), models.EmptyLayoutJSON...),
		Page:           page,
		ThemeOverrides: page.ThemeOverrides,
	}
	if res.ThemeOverrides == nil {
		res.ThemeOverrides = models.ThemeOverrides{}
	}
	if row != nil {
		res.Layout = row.LayoutJSON
		updatedAt := row.UpdatedAt
		res.UpdatedAt = &updatedAt
	}

	s.cache.Set(ctx, pageID, gen, res)
	return res, nil
}

// SavePageLayout stores the layout body verbatim. When overrides is non-nil the theme
// overrides are replaced in the same transaction; nil leaves them untouched.
func (s *PageLayoutService) SavePageLayout(ctx context.Context, pageID string, body json.RawMessage, overrides *models.ThemeOverrides, actor *string) (err error) {
	ctx, span := startSpan(ctx, "PageLayoutService.SavePageLayout",
		attribute.String("page.id", pageID),
		attribute.Bool("theme.included", overrides != nil))
	defer func() { endSpan(span, err) }()

	if !isJSONObject(body) {
		return apperrors.NewValidationError("layout_json", "must be a JSON object")
	}
	if overrides != nil {
		if err := s.validateOverrides(*overrides); err != nil {
			return err
		}
	}

	err = s.retryOnRace(ctx, func(txCtx context.Context) error {
		page, err := s.requirePage(txCtx, pageID)
		if err != nil {
			return err
		}
		if err := s.pages.UpsertLayout(txCtx, utils.GenerateID(), pageID, body, s.now()); err != nil {
			return fmt.Errorf("failed to save layout of page %s: %w", pageID, err)
		}
		if overrides == nil {
			return nil
		}
		_, err = s.writeOverrides(txCtx, page, *overrides, actor, "Theme overrides saved with layout")
		return err
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, pageID)
	s.log.Info("Page layout saved", "page_id", pageID, "bytes", len(body))
	return nil
}

// CreatePage inserts a page and, when given, its initial layout in one transaction.
func (s *PageLayoutService) CreatePage(ctx context.Context, in CreatePageInput, actor *string) (page *models.Page, err error) {
	ctx, span := startSpan(ctx, "PageLayoutService.CreatePage", attribute.String("page.slug", in.Slug))
	defer func() { endSpan(span, err) }()

	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if in.Slug == "" {
		return nil, apperrors.NewValidationError("slug", "is required")
	}
	if in.Title == "" {
		return nil, apperrors.NewValidationError("title", "is required")
	}
	if bytes.Equal(bytes.TrimSpace(in.Layout), []byte("null")) {
		in.Layout = nil
	}
	if len(in.Layout) > 0 && !isJSONObject(in.Layout) {
		return nil, apperrors.NewValidationError("layout_json", "must be a JSON object")
	}
	if err := s.validateOverrides(in.ThemeOverrides); err != nil {
		return nil, err
	}
	overrides, err := in.ThemeOverrides.Normalize()
	if err != nil {
		return nil, apperrors.NewValidationError("theme_overrides", err.Error())
	}

	now := s.now()
	page = &models.Page{
		ID:             utils.GenerateID(),
		Slug:           in.Slug,
		Title:          in.Title,
		IsPublished:    in.IsPublished,
		CreatedAt:      now,
		UpdatedAt:      now,
		UpdatedBy:      actor,
		ThemeOverrides: overrides,
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.pages.InsertPage(txCtx, page); err != nil {
			if apperrors.IsConflict(err) {
				return err
			}
			return fmt.Errorf("failed to create page %s: %w", in.Slug, err)
		}
		if len(in.Layout) == 0 {
			return nil
		}
		if err := s.pages.UpsertLayout(txCtx, utils.GenerateID(), page.ID, in.Layout, now); err != nil {
			return fmt.Errorf("failed to save initial layout of page %s: %w", in.Slug, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Page created", "page_id", page.ID, "slug", page.Slug)
	return page, nil
}

// GetPageBySlug returns nil, nil when no page has the slug.
func (s *PageLayoutService) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.pages.FindPageBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load page by slug %s: %w", slug, err)
	}
	return page, nil
}

// GetPageByID returns nil, nil when the page does not exist.
func (s *PageLayoutService) GetPageByID(ctx context.Context, id string) (*models.Page, error) {
	page, err := s.pages.FindPageByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", id, err)
	}
	return page, nil
}

// GetAllPages lists pages newest first. A store failure is logged and yields an empty list.
func (s *PageLayoutService) GetAllPages(ctx context.Context) []*models.Page {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		s.log.Error("Failed to list pages", "error", err)
		return []*models.Page{}
	}
	if pages == nil {
		return []*models.Page{}
	}
	return pages
}

// DeletePage removes a page together with its layout and audit rows.
func (s *PageLayoutService) DeletePage(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "PageLayoutService.DeletePage", attribute.String("page.id", id))
	defer func() { endSpan(span, err) }()

	deleted, err := s.pages.DeletePage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", id, err)
	}
	if !deleted {
		return apperrors.NewNotFoundError("page", id)
	}
	s.cache.Invalidate(ctx, id)
	s.log.Info("Page deleted", "page_id", id)
	return nil
}

// UpdatePageThemeOverrides replaces the whole overrides document and returns the stored one.
func (s *PageLayoutService) UpdatePageThemeOverrides(ctx context.Context, pageID string, overrides models.ThemeOverrides, actor *string) (models.ThemeOverrides, error) {
	return s.applyOverrides(ctx, "PageLayoutService.UpdatePageThemeOverrides", pageID, actor, "Theme overrides replaced",
		func(models.ThemeOverrides) models.ThemeOverrides { return overrides.Clone() })
}

// MergePageThemeOverrides overlays partial on the current document at the top level and
// returns the stored result. Concurrent merges never lose each other's keys.
func (s *PageLayoutService) MergePageThemeOverrides(ctx context.Context, pageID string, partial models.ThemeOverrides, actor *string) (models.ThemeOverrides, error) {
	return s.applyOverrides(ctx, "PageLayoutService.MergePageThemeOverrides", pageID, actor, "Theme overrides merged",
		func(current models.ThemeOverrides) models.ThemeOverrides { return current.Merge(partial) })
}

func (s *PageLayoutService) applyOverrides(ctx context.Context, op, pageID string, actor *string, description string, next func(models.ThemeOverrides) models.ThemeOverrides) (stored models.ThemeOverrides, err error) {
	ctx, span := startSpan(ctx, op, attribute.String("page.id", pageID))
	defer func() { endSpan(span, err) }()

	err = s.retryOnRace(ctx, func(txCtx context.Context) error {
		page, err := s.requirePage(txCtx, pageID)
		if err != nil {
			return err
		}
		doc := next(page.ThemeOverrides)
		if err := s.validateOverrides(doc); err != nil {
			return err
		}
		stored, err = s.writeOverrides(txCtx, page, doc, actor, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, pageID)
	return stored, nil
}

// GetPageThemeOverrideAuditLog returns the newest audit entries of a page. A limit of
// zero or less means DefaultAuditLimit. A store without the audit table yields no entries.
func (s *PageLayoutService) GetPageThemeOverrideAuditLog(ctx context.Context, pageID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.pages.ListAudit(ctx, pageID, limit)
	if persistence.IsTableMissing(err) {
		s.log.Warn("Theme override audit table is missing", "page_id", pageID)
		return []*models.AuditEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load theme audit of page %s: %w", pageID, err)
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	return entries, nil
}

func (s *PageLayoutService) requirePage(ctx context.Context, pageID string) (*models.Page, error) {
	page, err := s.pages.FindPageByID(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", pageID, err)
	}
	if page == nil {
		return nil, apperrors.NewNotFoundError("page", pageID)
	}
	return page, nil
}

func (s *PageLayoutService) validateOverrides(doc models.ThemeOverrides) error {
	if err := s.validator.ThemeOverrides(doc); err != nil {
		return apperrors.NewValidationError("theme_overrides", err.Error())
	}
	return nil
}

// retryOnRace runs fn in a fresh transaction until it stops losing the overrides race.
func (s *PageLayoutService) retryOnRace(ctx context.Context, fn func(txCtx context.Context) error) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.tx.WithTransaction(ctx, fn)
		if !errors.Is(err, errOverridesRaced) {
			return err
		}
		s.log.Warn("Theme overrides write lost a race", "attempt", attempt, "max", s.maxRetries)
	}
	return apperrors.NewConflictError("page theme overrides", "overrides_version", "")
}

// writeOverrides stores next with a compare-and-set on the version read with page and
// appends an audit entry when the document actually changed.
func (s *PageLayoutService) writeOverrides(ctx context.Context, page *models.Page, next models.ThemeOverrides, actor *string, description string) (models.ThemeOverrides, error) {
	oldDoc, err := page.ThemeOverrides.Normalize()
	if err != nil {
		return nil, fmt.Errorf("normalize current theme overrides: %w", err)
	}
	newDoc, err := next.Normalize()
	if err != nil {
		return nil, apperrors.NewValidationError("theme_overrides", err.Error())
	}

	now := s.now()
	updated, err := s.pages.UpdateThemeOverrides(ctx, page.ID, newDoc, actor, page.OverridesVersion, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update theme overrides of page %s: %w", page.ID, err)
	}
	if !updated {
		return nil, errOverridesRaced
	}

	if cmp.Equal(oldDoc, newDoc, cmpopts.EquateEmpty()) {
		return newDoc, nil
	}

	entry := &models.AuditEntry{
		ID:                utils.GenerateID(),
		PageID:            page.ID,
		UserID:            actor,
		OldOverrides:      oldDoc,
		NewOverrides:      newDoc,
		ChangeDescription: description,
		CreatedAt:         now,
	}
	if err := s.pages.InsertAudit(ctx, entry); err != nil {
		if persistence.IsTableMissing(err) {
			s.log.Warn("Theme override audit table is missing, change not recorded", "page_id", page.ID)
			return newDoc, nil
		}
		return nil, fmt.Errorf("failed to record theme audit of page %s: %w", page.ID, err)
	}
	return newDoc, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
