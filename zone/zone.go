// Package zone builds the first Brillouin zone: the Wigner–Seitz cell of a
// reciprocal lattice, as the intersection of the bisector half-spaces of
// the lattice points around the origin.
package zone

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/igrega348/brillouin_zone/vecmat"
	"github.com/rs/zerolog/log"
)

// ErrInsufficientRadius means the candidate points did not bound the cell:
// a bounding-box plane survived, the volume collapsed, or the volume does
// not match the primitive cell. Retrying with a larger radius fixes it.
var ErrInsufficientRadius = errors.New("zone: neighbour radius too small to bound the Brillouin zone")

type Options struct {
	// integer index radius of the candidate shell; a floor when Adaptive
	Radius  int
	Epsilon float64
	// Adaptive searches an LLL-reduced basis with per-axis radii large
	// enough to hold every face-defining neighbour. Otherwise candidates
	// are the cube max|n_i| <= Radius over the basis as given.
	Adaptive bool
}

func DefaultOptions() Options {
	return Options{Radius: 2, Epsilon: vecmat.DefaultEpsilon, Adaptive: true}
}

type Zone struct {
	Polyhedron objects.Polyhedron
	// the planes that ended up bounding a face, one per face
	Planes     []objects.HalfSpace
	Candidates int
	Discarded  int
	Radius     int
	// |det3(b1,b2,b3)|, which the zone volume must equal
	CellVolume float64
}

func (z *Zone) Volume() float64 {
	return z.Polyhedron.Volume()
}

// Symmetric reports whether -v is a vertex for every vertex v.
func (z *Zone) Symmetric(tol float64) bool {
	verts := z.Polyhedron.Vertices
	for _, v := range verts {
		found := false
		for _, w := range verts {
			if v.Add(w).Len() <= tol {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Build clips a cube enclosing the zone by the bisector of every
// candidate point, nearest first. Candidates whose plane removes nothing
// are discarded.
func Build(ctx context.Context, rb lattices.ReciprocalBasis, opts Options) (*Zone, error) {
	if opts.Epsilon <= 0 {
		opts.Epsilon = vecmat.DefaultEpsilon
	}
	// rb comes from a checked direct basis, so only finiteness is tested here
	cell, err := objects.NewParallelepiped(mgl64.Vec3{}, rb.B1, rb.B2, rb.B3, 0)
	if err != nil {
		return nil, err
	}
	scale := rb.MaxLen()
	tol := opts.Epsilon * scale

	var points []lattices.Point
	if opts.Adaptive {
		points, err = lattices.Neighbors(rb, opts.Radius)
	} else {
		points, err = lattices.Generate(rb, lattices.GenerateOptions{
			Radius:  opts.Radius,
			Shell:   lattices.Cube,
			Epsilon: opts.Epsilon,
		})
	}
	if err != nil {
		return nil, err
	}
	lattices.SortByDistance(points, tol)

	// every point of the zone is within the covering radius of the origin
	poly := objects.NewCube(2 * lattices.Reduce(rb).CoveringBound()).ToPolyhedron()
	z := &Zone{Candidates: len(points), Radius: opts.Radius, CellVolume: cell.Volume()}
	for _, pt := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := objects.Bisector(pt.Pos, pt.Index)
		next, removed, err := poly.Clip(h, tol)
		if errors.Is(err, objects.ErrEmptyPolyhedron) {
			return nil, fmt.Errorf("%w: clipping by %v left nothing", ErrInsufficientRadius, pt.Index)
		} else if err != nil {
			return nil, err
		}
		if !removed {
			z.Discarded++
			continue
		}
		poly = next
	}
	poly = poly.Compact(tol)
	z.Polyhedron = poly

	if !poly.Bounded() {
		return nil, fmt.Errorf("%w: radius %d leaves the zone open", ErrInsufficientRadius, opts.Radius)
	}
	vol := poly.Volume()
	if vecmat.NearZero(vol, tol*tol*tol) {
		return nil, fmt.Errorf("%w: zone has zero volume", ErrInsufficientRadius)
	}
	if math.Abs(vol-z.CellVolume) > math.Sqrt(opts.Epsilon)*z.CellVolume {
		return nil, fmt.Errorf("%w: zone volume %g differs from cell volume %g", ErrInsufficientRadius, vol, z.CellVolume)
	}
	if poly.Density(0, 0, 0) == 0 {
		return nil, fmt.Errorf("%w: origin is outside the zone", ErrInsufficientRadius)
	}
	for _, f := range poly.Faces {
		z.Planes = append(z.Planes, f.Plane)
	}
	log.Debug().Msgf("Zone with %d vertices, %d faces from %d candidates (%d discarded)", len(poly.Vertices), len(poly.Faces), z.Candidates, z.Discarded)
	return z, nil
}
