package mode

import (
	"errors"
	"fmt"

	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/detector"
)

// ErrorKind classifies setup failures for the error display.
type ErrorKind string

const (
	PermissionDenied ErrorKind = "permission_denied"
	ModelLoadFailure ErrorKind = "model_load_failure"
)

// SetupError is a failure to bring a mode up. It is fatal to the mode
// instance and never retried automatically.
type SetupError struct {
	Kind ErrorKind
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the player.
func (e *SetupError) Message() string {
	switch e.Kind {
	case PermissionDenied:
		return "Camera access was denied. Allow the camera and reload to play."
	default:
		return "The tracking model could not be loaded. Reload to try again."
	}
}

// newSetupError classifies err. Anything that is not a permission problem
// is treated as a model load failure, which the player handles the same way.
func newSetupError(err error) *SetupError {
	var se *SetupError
	if errors.As(err, &se) {
		return se
	}
	kind := ModelLoadFailure
	if errors.Is(err, capture.ErrPermissionDenied) {
		kind = PermissionDenied
	} else if !errors.Is(err, detector.ErrModelLoad) {
		err = fmt.Errorf("%w: %w", detector.ErrModelLoad, err)
	}
	return &SetupError{Kind: kind, Err: err}
}
