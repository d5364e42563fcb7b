package organize

import (
	"errors"
	"fmt"
)

// ErrFatalInput marks structurally invalid input at the Plan/Log boundary:
// a nil record list, an empty source path, a corrupt or missing run log.
// Anything file-scoped is recorded in the log instead and never aborts a run.
var ErrFatalInput = errors.New("fatal input error")

// fatalInputf wraps ErrFatalInput with context.
func fatalInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFatalInput, fmt.Sprintf(format, args...))
}
