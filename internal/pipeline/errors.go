package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhase means the requested phase is not one of the known
	// pipeline phases. Checked before any side effect.
	ErrInvalidPhase = errors.New("invalid processing phase")

	// ErrVideoNotFound means the referenced video row does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrInvalidState means the video's current status does not allow the
	// requested operation (e.g. retrigger before the upload finished).
	ErrInvalidState = errors.New("video state does not allow this operation")
)

// ProviderError wraps a failure talking to the external transcoding
// provider. Sweeps convert it to "no state change" instead of aborting.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
