package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/matchdesk/cms/internal/application/services"
	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
)

//go:embed system_pages.json
var systemPagesJSON []byte

type SystemPages struct {
	Pages []struct {
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		IsPublished bool   `json:"is_published"`
	} `json:"pages"`
}

// PageSeeder is the part of the page service the seeding step needs.
type PageSeeder interface {
	GetPageBySlug(ctx context.Context, slug string) (*models.Page, error)
	CreatePage(ctx context.Context, in services.CreatePageInput, actor *string) (*models.Page, error)
}

// InitializeSystemPages makes sure every page shipped with the service exists. The pages
// are created without a layout, so they render from the static bundle named after their
// slug until an editor saves one.
func InitializeSystemPages(ctx context.Context, pages PageSeeder, log *logger.Logger) (int, error) {
	var data SystemPages
	if err := json.Unmarshal(systemPagesJSON, &data); err != nil {
		return 0, fmt.Errorf("failed to parse system_pages.json: %w", err)
	}

	created := 0
	for _, p := range data.Pages {
		existing, err := pages.GetPageBySlug(ctx, p.Slug)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		_, err = pages.CreatePage(ctx, services.CreatePageInput{
			Slug:        p.Slug,
			Title:       p.Title,
			IsPublished: p.IsPublished,
		}, nil)
		// Another instance may have seeded the same page concurrently.
		if apperrors.IsConflict(err) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to create system page %s: %w", p.Slug, err)
		}
		created++
	}
	log.Info("system pages ensured", "pages", len(data.Pages), "created", created)
	return created, nil
}
