package repository

import (
	"context"
	"errors"

	"github.com/stwalsh4118/landsync/internal/models"
)

// ErrDuplicateKey is returned when an insert or rename would break natural-key uniqueness.
var ErrDuplicateKey = errors.New("duplicate natural key")

// LandholderRepository defines the data access operations for landholders.
// Lookups return nil, nil when nothing matches; errors are reserved for storage failures.
type LandholderRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Landholder, error)
	FindByID(ctx context.Context, id int64) (*models.Landholder, error)

	// Insert stores a new landholder and sets its ID and timestamps.
	Insert(ctx context.Context, l *models.Landholder) error

	// Update overwrites every mutable field of the landholder with the given ID.
	Update(ctx context.Context, l *models.Landholder) error
}

// ParcelRepository defines the data access operations for parcels.
// Lookups return nil, nil when nothing matches; errors are reserved for storage failures.
type ParcelRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Parcel, error)

	// Insert stores a new parcel and sets its ID and timestamps.
	// Returns ErrDuplicateKey if the code is already taken.
	Insert(ctx context.Context, p *models.Parcel) error

	// Update overwrites every mutable field of the parcel with the given ID.
	Update(ctx context.Context, p *models.Parcel) error

	// Rename changes a parcel's code. Clearing its data-quality issues also marks it surveyed.
	// Returns ErrDuplicateKey if the new code is already taken.
	Rename(ctx context.Context, id int64, code string, clearIssues bool) error

	// Delete removes the parcel with the given ID. Deleting a missing parcel is not an error.
	Delete(ctx context.Context, id int64) error

	// List returns every parcel ordered by ID.
	List(ctx context.Context) ([]models.Parcel, error)

	// ListByLandholder returns the parcels owned by a landholder ordered by code.
	ListByLandholder(ctx context.Context, landholderID int64) ([]models.Parcel, error)
}

// Store groups the repositories that share one unit of work.
type Store interface {
	Landholders() LandholderRepository
	Parcels() ParcelRepository
}

// TxRunner runs a function inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise, leaving the store unchanged.
type TxRunner interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
