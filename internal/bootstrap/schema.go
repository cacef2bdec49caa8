package bootstrap

import (
	"context"
	"fmt"

	"github.com/matchdesk/cms/internal/infrastructure/persistence"
	"github.com/matchdesk/cms/pkg/logger"
)

// InitializeSchema creates the page, layout and theme audit tables when they are missing.
func InitializeSchema(ctx context.Context, db persistence.Executor, log *logger.Logger) error {
	log.Info("initializing cms schema", "statements", len(persistence.SchemaStatements()))
	if err := persistence.ApplySchema(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Info("cms schema ready")
	return nil
}
