package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Token stores and transports return
// these (optionally wrapped) so the client and slices can translate them.
//
//   - ErrNotFound: key or record does not exist in the store
//   - ErrUnavailable: backing service is unreachable or refused the call
//   - ErrInvalidState: stored data could not be read back (corrupt file, bad row)
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
