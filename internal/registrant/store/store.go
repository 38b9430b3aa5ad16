// Package store defines registrant persistence. Backends live in subpackages:
// memory for tests and local runs, sheets for the spreadsheet deployment and
// postgres for the relational one.
package store

import (
	"context"

	"enroll/internal/registrant/models"
)

// Store is the registrant persistence boundary. Implementations return sentinel
// errors (sentinel.ErrNotFound, sentinel.ErrConflict, sentinel.ErrUnavailable).
//
// Lookups by tax id and email resolve duplicates to the most recently created row.
// Field writes are point updates; a field the backend cannot hold is skipped and
// reported by ColumnReporter instead of failing the write.
type Store interface {
	// EnsureSchema creates whatever the backend needs. It is idempotent and
	// called once at startup.
	EnsureSchema(ctx context.Context) error
	AppendNew(ctx context.Context, r *models.Registrant) error
	FindByID(ctx context.Context, id string) (*models.Registrant, error)
	FindByTaxID(ctx context.Context, taxID string) (*models.Registrant, error)
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)
	List(ctx context.Context) ([]*models.Registrant, error)
	UpsertFields(ctx context.Context, id string, values models.Values) error
	UpsertMany(ctx context.Context, patches []models.Patch) error
}

// ColumnReporter is implemented by backends whose schema can drift at runtime.
type ColumnReporter interface {
	MissingColumns(ctx context.Context) ([]models.Field, error)
}
