package titration

import "github.com/pkg/errors"

var (
	ErrTooFewPoints   = errors.New("titration: not enough points")
	ErrLengthMismatch = errors.New("titration: input lengths differ")
	ErrReference      = errors.New("titration: unusable reference intensity")
	ErrMinSegment     = errors.New("titration: segments need at least 2 points")
)
