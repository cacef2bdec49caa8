// Package services provides the business logic layer of the CMS.
//
// This package contains the service implementations that handle:
//   - Page CRUD, layout persistence and theme overrides with audit (PageLayoutService)
//   - Page rendering from persisted or static layouts (RenderService)
//   - Builder sessions that stage prop edits before saving (BuilderService)
//
// All services take their collaborators by constructor injection and are wired
// together by ServiceManager.
package services
