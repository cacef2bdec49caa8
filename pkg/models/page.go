package models

import (
	"encoding/json"
	"time"
)

// Page is one CMS-managed page. ThemeOverrides is never nil once loaded from the store.
type Page struct {
	ID               string         `json:"id"`
	Slug             string         `json:"slug"`
	Title            string         `json:"title"`
	IsPublished      bool           `json:"is_published"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	UpdatedBy        *string        `json:"updated_by,omitempty"`
	ThemeOverrides   ThemeOverrides `json:"theme_overrides"`
	OverridesVersion int64          `json:"overrides_version"`
}

// PageLayoutRow is one persisted layout body. LayoutJSON is kept byte-for-byte.
type PageLayoutRow struct {
	ID         string          `json:"id"`
	PageID     string          `json:"page_id"`
	LayoutJSON json.RawMessage `json:"layout_json"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PageLayoutResult is what loading a page for the builder or the renderer returns.
type PageLayoutResult struct {
	Layout         json.RawMessage `json:"layout_json"`
	UpdatedAt      *time.Time      `json:"updated_at"`
	Page           *Page           `json:"page"`
	ThemeOverrides ThemeOverrides  `json:"theme_overrides"`
}

// AuditEntry records one change of a page's theme overrides. Append-only.
type AuditEntry struct {
	ID                string         `json:"id"`
	PageID            string         `json:"page_id"`
	UserID            *string        `json:"user_id,omitempty"`
	OldOverrides      ThemeOverrides `json:"old_overrides"`
	NewOverrides      ThemeOverrides `json:"new_overrides"`
	ChangeDescription string         `json:"change_description"`
	CreatedAt         time.Time      `json:"created_at"`
}

// EmptyLayoutJSON is returned for pages that have never had a layout saved.
var EmptyLayoutJSON = json.RawMessage(`{}`)
