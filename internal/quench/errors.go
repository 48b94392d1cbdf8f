package quench

import "github.com/pkg/errors"

var (
	// ErrPlacement indicates a species could not be placed at all.
	ErrPlacement = errors.New("quench: no complexes placed")

	// ErrInvalidParams indicates a parameter outside its valid range.
	ErrInvalidParams = errors.New("quench: invalid parameters")
)

// StepError wraps an error with the tick at which the run stopped.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return errors.Wrapf(e.Err, "tick %d", e.Step).Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}
