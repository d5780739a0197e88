package lattices

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxCandidates caps the number of index triples Neighbors enumerates.
const MaxCandidates = 100000

// lovasz is the LLL reduction parameter δ.
const lovasz = 0.75

// Reduction is an LLL-reduced basis of the same lattice. Row i of
// Transform holds the integer coefficients of Reduced[i] over the
// original basis.
type Reduction struct {
	Reduced   [3]mgl64.Vec3
	Transform [3][3]int
}

func gramSchmidt(b [3]mgl64.Vec3) [3]mgl64.Vec3 {
	var g [3]mgl64.Vec3
	for i := range b {
		g[i] = b[i]
		for j := 0; j < i; j++ {
			g[i] = g[i].Sub(g[j].Mul(b[i].Dot(g[j]) / g[j].Dot(g[j])))
		}
	}
	return g
}

// Reduce runs LLL on the reciprocal basis. The result spans the same
// lattice with short, nearly orthogonal vectors.
func Reduce(rb ReciprocalBasis) Reduction {
	b := rb.Vectors()
	u := [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	k := 1
	for iter := 0; k < 3 && iter < 1000; iter++ {
		for j := k - 1; j >= 0; j-- {
			g := gramSchmidt(b)
			q := math.Round(b[k].Dot(g[j]) / g[j].Dot(g[j]))
			if q == 0 {
				continue
			}
			b[k] = b[k].Sub(b[j].Mul(q))
			for c := 0; c < 3; c++ {
				u[k][c] -= int(q) * u[j][c]
			}
		}
		g := gramSchmidt(b)
		mu := b[k].Dot(g[k-1]) / g[k-1].Dot(g[k-1])
		if g[k].Dot(g[k]) >= (lovasz-mu*mu)*g[k-1].Dot(g[k-1]) {
			k++
			continue
		}
		b[k], b[k-1] = b[k-1], b[k]
		u[k], u[k-1] = u[k-1], u[k]
		if k > 1 {
			k--
		}
	}
	return Reduction{Reduced: b, Transform: u}
}

// Original maps coefficients over the reduced basis back to indices over
// the original one.
func (r Reduction) Original(m [3]int) [3]int {
	var n [3]int
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			n[j] += m[i] * r.Transform[i][j]
		}
	}
	return n
}

// CoveringBound is an upper bound on the distance from any point to its
// nearest lattice point: half the norm of the Gram-Schmidt vectors, which
// Babai's nearest-plane rounding always achieves.
func (r Reduction) CoveringBound() float64 {
	sum := 0.0
	for _, g := range gramSchmidt(r.Reduced) {
		sum += g.Dot(g)
	}
	return 0.5 * math.Sqrt(sum)
}

// AxisRadii bounds |m_i| for every lattice point P = Σ m_i c_i with
// |P| <= reach. m_i = P·d_i with d_i the dual of the reduced basis.
func (r Reduction) AxisRadii(reach float64) [3]int {
	c := r.Reduced
	det := math.Abs(c[0].Dot(c[1].Cross(c[2])))
	var radii [3]int
	for i := 0; i < 3; i++ {
		d := c[(i+1)%3].Cross(c[(i+2)%3]).Len() / det
		radii[i] = int(math.Floor(reach * d * (1 + 1e-9)))
	}
	return radii
}

// Neighbors enumerates every lattice point other than the origin that can
// define a face of the Wigner–Seitz cell. A face point x has |x| <= ρ,
// the covering bound, and is equidistant from the origin and its point P,
// so |P| <= 2ρ. The search runs over the reduced basis with per-axis
// radii of at least minRadius; indices are reported over rb.
func Neighbors(rb ReciprocalBasis, minRadius int) ([]Point, error) {
	if minRadius < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, minRadius)
	}
	red := Reduce(rb)
	reach := 2 * red.CoveringBound()
	radii := red.AxisRadii(reach)
	total := 1
	for i := range radii {
		if radii[i] < minRadius {
			radii[i] = minRadius
		}
		total *= 2*radii[i] + 1
	}
	if total > MaxCandidates {
		return nil, fmt.Errorf("%w: %v index radii need %d candidates", ErrTooManyPoints, radii, total)
	}
	points := make([]Point, 0, total-1)
	for i := -radii[0]; i <= radii[0]; i++ {
		for j := -radii[1]; j <= radii[1]; j++ {
			for k := -radii[2]; k <= radii[2]; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				n := red.Original([3]int{i, j, k})
				points = append(points, Point{Index: n, Pos: rb.Point(n)})
			}
		}
	}
	return points, nil
}
