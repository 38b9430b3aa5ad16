package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: no row matches the lookup key
//   - ErrConflict: a row with the same immutable id already exists
//   - ErrMissingColumn: the backing table lacks a column the caller asked for
//   - ErrUnavailable: backing service or resource temporarily unavailable
//   - ErrLocked: another writer holds the registrant's mutation lock
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrMissingColumn = errors.New("missing column")
	ErrUnavailable   = errors.New("unavailable")
	ErrLocked        = errors.New("locked")
)
