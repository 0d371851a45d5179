package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and secret providers
// return these (optionally wrapped) so services can translate them into domain
// errors or derivation outcomes.
//
//   - ErrNotFound: record does not exist in store
//   - ErrConflict: write lost a uniqueness or compare-and-set race
//   - ErrInvalidState: record is in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrCacheMiss: cache has no fresh value for the key
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrCacheMiss    = errors.New("cache miss")
)
