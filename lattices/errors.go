package lattices

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a request the caller must fix: missing or
	// non-numeric components, non-positive spacing, bad radius.
	ErrInvalidInput = errors.New("lattices: invalid input")
	// ErrInvalidSpacing indicates spacing <= 0 or non-finite.
	ErrInvalidSpacing = fmt.Errorf("%w: spacing must be a positive number", ErrInvalidInput)
	// ErrInvalidRadius indicates a generation radius below 1.
	ErrInvalidRadius = fmt.Errorf("%w: generation radius must be at least 1", ErrInvalidInput)
	// ErrTooManyPoints indicates a basis so elongated that its neighbour
	// shell exceeds MaxCandidates.
	ErrTooManyPoints = fmt.Errorf("%w: basis is too anisotropic", ErrInvalidInput)
)
