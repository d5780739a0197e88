package engine

import (
	"context"
	"errors"
	"net/http"

	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/mesh"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/igrega348/brillouin_zone/vecmat"
	"github.com/igrega348/brillouin_zone/zone"
)

// Kind groups engine failures by who has to act on them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindDegenerateBasis
	KindInsufficientRadius
	KindInvariantViolation
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindDegenerateBasis:
		return "degenerate_basis"
	case KindInsufficientRadius:
		return "insufficient_neighbor_radius"
	case KindInvariantViolation:
		return "invariant_violation"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Status is the HTTP status code a failure of this kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindDegenerateBasis:
		return http.StatusBadRequest
	case KindInsufficientRadius:
		return http.StatusUnprocessableEntity
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func Classify(err error) Kind {
	switch {
	case errors.Is(err, lattices.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, vecmat.ErrDegenerateBasis):
		return KindDegenerateBasis
	case errors.Is(err, zone.ErrInsufficientRadius):
		return KindInsufficientRadius
	case errors.Is(err, mesh.ErrInvariantViolation), errors.Is(err, objects.ErrMalformedFace):
		return KindInvariantViolation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	default:
		return KindInternal
	}
}
