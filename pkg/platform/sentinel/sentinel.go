package sentinel

import "errors"

// Sentinel errors for persistence facts. Progress, givve and membership stores return
// these (optionally wrapped) and services translate them into coded domain errors:
//   - ErrNotFound: no record for the key
//   - ErrConflict: write collided with an existing row
//   - ErrInvalidState: stored record cannot take the requested mutation
//   - ErrUnavailable: backing store could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
