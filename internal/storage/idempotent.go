package storage

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/pkg/db"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

// InsertOrFetch inserts a row guarded by a natural-key unique constraint.
// When the insert loses a race and hits the constraint, the existing row is
// fetched and returned instead, so a duplicate create collapses into an
// idempotent success. Any other insert failure maps to INTERNAL_ERROR.
func InsertOrFetch[T any](
	ctx context.Context,
	constraint string,
	insert func(ctx context.Context) (*T, error),
	fetch func(ctx context.Context) (*T, error),
) (*T, bool, error) {
	row, err := insert(ctx)
	if err == nil {
		return row, true, nil
	}
	if !db.IsUniqueViolation(err, constraint) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting record")
	}
	existing, fetchErr := fetch(ctx)
	if fetchErr != nil {
		return nil, false, fetchErr
	}
	return existing, false, nil
}
