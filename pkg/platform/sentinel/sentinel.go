package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the registry service translates them into attributed registry errors.
//
// - ErrNotFound: no row/entry for the key
// - ErrConflict: a unique key (token id, pdf hash) is already taken
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
