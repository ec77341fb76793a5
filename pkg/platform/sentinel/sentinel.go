package sentinel

import "errors"

// Sentinel errors for ledger facts. Stores return these (optionally wrapped)
// so the registry service can translate them into coded domain errors.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: record does not exist in the ledger
// - ErrConflict: a record already occupies the key (collaborator re-add)
// - ErrInvalidState: record is in the wrong state for the requested write
//
// For validation errors (bad input, cap violations), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
