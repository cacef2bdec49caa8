package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Table names.
const (
	TablePages       = "pages"
	TablePageLayouts = "page_layouts"
	TableThemeAudit  = "page_theme_override_audit"
)

// SchemaStatements returns the DDL statements in execution order.
func SchemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ApplySchema creates missing tables. Existing tables are left as they are.
func ApplySchema(ctx context.Context, db Executor) error {
	for _, stmt := range SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
