package services

import (
	"context"
	"database/sql"

	"github.com/matchdesk/cms/internal/infrastructure/cache"
	"github.com/matchdesk/cms/internal/infrastructure/persistence"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/propsedit"
	"github.com/matchdesk/cms/pkg/widgetmap"
	"github.com/matchdesk/cms/pkg/widgets"
)

const txDeadlockAttempts = 3

// deadlockRetrying runs each transaction through WithRetry so deadlocked ones are replayed.
type deadlockRetrying struct {
	tm       *persistence.TransactionManager
	attempts int
}

func (d deadlockRetrying) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.tm.WithRetry(ctx, fn, d.attempts)
}

// Dependencies are the collaborators the services are built from.
type Dependencies struct {
	DB       *sql.DB
	Registry *widgets.Registry
	Builder  *widgetmap.Builder
	Cache    cache.LayoutCache // optional
	Log      *logger.Logger
}

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *sql.DB

	TxManager *persistence.TransactionManager
	Registry  *widgets.Registry
	Pages     *PageLayoutService
	Render    *RenderService
	Builder   *BuilderService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(deps Dependencies) *ServiceManager {
	sm := &ServiceManager{
		db:       deps.DB,
		Registry: deps.Registry,
	}

	// Initialize services in dependency order
	sm.TxManager = persistence.NewTransactionManager(deps.DB)
	repo := persistence.NewPageRepository(deps.DB)
	sm.Pages = NewPageLayoutService(repo, deadlockRetrying{tm: sm.TxManager, attempts: txDeadlockAttempts}, deps.Log.With("component", "PageLayoutService"),
		WithLayoutCache(deps.Cache))

	builder := deps.Builder
	if builder == nil {
		builder = widgetmap.NewBuilder(deps.Registry, deps.Log)
	}
	sm.Render = NewRenderService(sm.Pages, builder, deps.Log)

	editor := propsedit.NewEditor(deps.Registry, propsedit.NewStore(), deps.Log)
	sm.Builder = NewBuilderService(sm.Pages, editor, deps.Registry, deps.Log)

	return sm
}
