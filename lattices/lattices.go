package lattices

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/conventions"
	"github.com/igrega348/brillouin_zone/vecmat"
)

type Basis struct {
	// direct lattice vectors a1, a2, a3
	A1, A2, A3 mgl64.Vec3
}

// NewBasis validates that the three vectors span a volume.
func NewBasis(a1, a2, a3 mgl64.Vec3, eps float64) (Basis, error) {
	if err := vecmat.CheckBasis(a1, a2, a3, eps); err != nil {
		return Basis{}, err
	}
	return Basis{A1: a1, A2: a2, A3: a3}, nil
}

func (b Basis) Vectors() [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{b.A1, b.A2, b.A3}
}

// Volume is the signed cell volume det3(a1,a2,a3).
func (b Basis) Volume() float64 {
	return vecmat.Det3(b.A1, b.A2, b.A3)
}

func (b Basis) String() string {
	return fmt.Sprintf("Basis{A1: %v, A2: %v, A3: %v}", b.A1, b.A2, b.A3)
}

type ReciprocalBasis struct {
	B1, B2, B3 mgl64.Vec3
	Spacing    float64
	Convention string
	// a_i·b_i for every i
	Scale float64
}

func (rb ReciprocalBasis) Vectors() [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{rb.B1, rb.B2, rb.B3}
}

// Point returns n1·b1 + n2·b2 + n3·b3.
func (rb ReciprocalBasis) Point(n [3]int) mgl64.Vec3 {
	return rb.B1.Mul(float64(n[0])).Add(rb.B2.Mul(float64(n[1]))).Add(rb.B3.Mul(float64(n[2])))
}

func (rb ReciprocalBasis) Volume() float64 {
	return vecmat.Det3(rb.B1, rb.B2, rb.B3)
}

// MaxLen is the length of the longest reciprocal vector; used to scale
// tolerances to the lattice.
func (rb ReciprocalBasis) MaxLen() float64 {
	return math.Max(rb.B1.Len(), math.Max(rb.B2.Len(), rb.B3.Len()))
}

// Residual returns max |a_i·b_j - Scale·δ_ij| over all pairs.
func (rb ReciprocalBasis) Residual(b Basis) float64 {
	as, bs := b.Vectors(), rb.Vectors()
	worst := 0.0
	for i := range as {
		for j := range bs {
			want := 0.0
			if i == j {
				want = rb.Scale
			}
			worst = math.Max(worst, math.Abs(as[i].Dot(bs[j])-want))
		}
	}
	return worst
}

func (rb ReciprocalBasis) String() string {
	return fmt.Sprintf("ReciprocalBasis{B1: %v, B2: %v, B3: %v, Spacing: %v, Convention: %s}", rb.B1, rb.B2, rb.B3, rb.Spacing, rb.Convention)
}

// Reciprocal computes b1 = k·(a2×a3)/V, b2 = k·(a3×a1)/V, b3 = k·(a1×a2)/V
// with V = det3(a1,a2,a3) and k = factor·spacing, so that a_i·b_j = k·δ_ij.
func Reciprocal(b Basis, spacing float64, conv conventions.Convention, eps float64) (ReciprocalBasis, error) {
	if math.IsNaN(spacing) || math.IsInf(spacing, 0) || spacing <= 0 {
		return ReciprocalBasis{}, fmt.Errorf("%w: got %v", ErrInvalidSpacing, spacing)
	}
	if conv == nil {
		conv = conventions.Crystallographic{}
	}
	if err := vecmat.CheckBasis(b.A1, b.A2, b.A3, eps); err != nil {
		return ReciprocalBasis{}, err
	}
	k := conv.Factor() * spacing
	v := b.Volume()
	return ReciprocalBasis{
		B1:         vecmat.Cross(b.A2, b.A3).Mul(k / v),
		B2:         vecmat.Cross(b.A3, b.A1).Mul(k / v),
		B3:         vecmat.Cross(b.A1, b.A2).Mul(k / v),
		Spacing:    spacing,
		Convention: conv.Name(),
		Scale:      k,
	}, nil
}

type Shell int

const (
	// Cube takes every index triple with max |n_i| <= R.
	Cube Shell = iota
	// Octahedral takes every index triple with |n1|+|n2|+|n3| <= R.
	Octahedral
)

func (s Shell) String() string {
	switch s {
	case Cube:
		return "cube"
	case Octahedral:
		return "octahedral"
	default:
		return fmt.Sprintf("Shell(%d)", int(s))
	}
}

func ParseShell(s string) (Shell, error) {
	switch strings.ToLower(s) {
	case "cube", "":
		return Cube, nil
	case "octahedral", "taxicab":
		return Octahedral, nil
	default:
		return Cube, fmt.Errorf("%w: unknown shell `%s`", ErrInvalidInput, s)
	}
}

type Point struct {
	Index [3]int
	Pos   mgl64.Vec3
}

type GenerateOptions struct {
	Radius        int
	Shell         Shell
	IncludeOrigin bool
	// points closer than Epsilon (scaled by the longest b_i) are merged
	Epsilon float64
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Radius:  2,
		Shell:   Cube,
		Epsilon: vecmat.DefaultEpsilon,
	}
}

// Generate enumerates lattice points n1·b1+n2·b2+n3·b3 in index order
// (n1 outermost), optionally skipping the origin.
func Generate(rb ReciprocalBasis, opts GenerateOptions) ([]Point, error) {
	if opts.Radius < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, opts.Radius)
	}
	r := opts.Radius
	side := 2*r + 1
	points := make([]Point, 0, side*side*side)
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			for k := -r; k <= r; k++ {
				if opts.Shell == Octahedral && abs(i)+abs(j)+abs(k) > r {
					continue
				}
				if i == 0 && j == 0 && k == 0 && !opts.IncludeOrigin {
					continue
				}
				n := [3]int{i, j, k}
				points = append(points, Point{Index: n, Pos: rb.Point(n)})
			}
		}
	}
	return Dedup(points, opts.Epsilon*rb.MaxLen()), nil
}

// Dedup drops points lying within tol of an earlier point. The first
// occurrence in input order wins.
func Dedup(points []Point, tol float64) []Point {
	out := points[:0:0]
	for _, p := range points {
		dup := false
		for _, q := range out {
			if p.Pos.Sub(q.Pos).Len() <= tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// SortByDistance orders points by increasing |P|, breaking ties
// lexicographically on the integer index so the order is reproducible.
func SortByDistance(points []Point, tol float64) {
	key := func(p Point) float64 {
		d := p.Pos.Len()
		if tol > 0 {
			// quantize so near-equal distances tie and fall through to the index
			return math.Round(d / tol)
		}
		return d
	}
	sort.SliceStable(points, func(a, b int) bool {
		ka, kb := key(points[a]), key(points[b])
		if ka != kb {
			return ka < kb
		}
		return indexLess(points[a].Index, points[b].Index)
	})
}

func indexLess(a, b [3]int) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
