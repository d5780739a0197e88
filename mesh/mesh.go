package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/markus-wa/quickhull-go/v2"
)

// ErrInvariantViolation signals a polyhedron or mesh the zone builder
// should never have produced.
var ErrInvariantViolation = errors.New("mesh: polyhedron invariant violated")

// Mesh is a triangle mesh over a shared vertex list. Triangles are wound
// counter-clockwise seen from outside.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles [][3]int
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Area is the total triangle area.
func (m *Mesh) Area() float64 {
	a := 0.0
	for _, t := range m.Triangles {
		a += m.normal(t).Len() / 2
	}
	return a
}

func (m *Mesh) normal(t [3]int) mgl64.Vec3 {
	v0 := m.Vertices[t[0]]
	return m.Vertices[t[1]].Sub(v0).Cross(m.Vertices[t[2]].Sub(v0))
}

// Validate checks every triangle has three distinct in-range indices and
// that the surface is closed and consistently wound: each edge is used
// exactly once in each direction.
func (m *Mesh) Validate() error {
	directed := map[[2]int]int{}
	for i, t := range m.Triangles {
		for _, idx := range t {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvariantViolation, i, idx, len(m.Vertices))
			}
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			return fmt.Errorf("%w: triangle %d repeats a vertex %v", ErrInvariantViolation, i, t)
		}
		for k := 0; k < 3; k++ {
			directed[[2]int{t[k], t[(k+1)%3]}]++
		}
	}
	for e, n := range directed {
		if n != 1 || directed[[2]int{e[1], e[0]}] != 1 {
			return fmt.Errorf("%w: edge %v is not shared by exactly two oppositely wound triangles", ErrInvariantViolation, e)
		}
	}
	return nil
}

// Triangulator turns a polyhedron into a mesh on the same vertex list.
type Triangulator func(p *objects.Polyhedron, eps float64) (*Mesh, error)

func ByName(name string) (Triangulator, error) {
	switch name {
	case "fan", "":
		return Fan, nil
	case "hull":
		return Hull, nil
	default:
		return nil, fmt.Errorf("unknown triangulation `%s`", name)
	}
}

// Fan emits (v0, vi, vi+1) for every face, keeping the face winding.
func Fan(p *objects.Polyhedron, _ float64) (*Mesh, error) {
	m := &Mesh{Vertices: p.Vertices}
	for i, f := range p.Faces {
		if len(f.Loop) < 3 {
			return nil, fmt.Errorf("%w: face %d has %d vertices", ErrInvariantViolation, i, len(f.Loop))
		}
		for k := 1; k+1 < len(f.Loop); k++ {
			m.Triangles = append(m.Triangles, [3]int{f.Loop[0], f.Loop[k], f.Loop[k+1]})
		}
	}
	return m, nil
}

// Hull triangulates the convex hull of the polyhedron vertices with
// quickhull and rewinds each triangle to face away from the centroid.
func Hull(p *objects.Polyhedron, eps float64) (*Mesh, error) {
	if len(p.Vertices) < 4 {
		return nil, fmt.Errorf("%w: %d vertices cannot enclose a volume", ErrInvariantViolation, len(p.Vertices))
	}
	pts := make([]r3.Vector, len(p.Vertices))
	for i, v := range p.Vertices {
		pts[i] = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	}
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(pts, true, true, eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: quickhull returned %d indices", ErrInvariantViolation, len(ch.Indices))
	}
	m := &Mesh{Vertices: p.Vertices}
	c := p.Centroid()
	for k := 0; k < len(ch.Indices); k += 3 {
		t := [3]int{ch.Indices[k], ch.Indices[k+1], ch.Indices[k+2]}
		mid := m.Vertices[t[0]].Add(m.Vertices[t[1]]).Add(m.Vertices[t[2]]).Mul(1.0 / 3)
		if m.normal(t).Dot(mid.Sub(c)) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		m.Triangles = append(m.Triangles, t)
	}
	// quickhull does not promise an order; sort for reproducible output
	sort.Slice(m.Triangles, func(a, b int) bool {
		ta, tb := m.Triangles[a], m.Triangles[b]
		for i := 0; i < 3; i++ {
			if ta[i] != tb[i] {
				return ta[i] < tb[i]
			}
		}
		return false
	})
	return m, nil
}
