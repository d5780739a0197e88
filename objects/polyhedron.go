package objects

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is a planar convex polygon. Loop holds vertex indices in
// counter-clockwise order seen from outside, so the loop normal agrees
// with Plane.Normal.
type Face struct {
	Plane HalfSpace
	Loop  []int
}

// Polyhedron is a convex polyhedron kept as an arena of vertices referenced
// by index from the face loops. Vertices not referenced by any face are
// dropped by Compact.
type Polyhedron struct {
	Vertices []mgl64.Vec3
	Faces    []Face
	Rho      float64
}

func (p *Polyhedron) String() string {
	return fmt.Sprintf("Polyhedron{Vertices: %d, Faces: %d}", len(p.Vertices), len(p.Faces))
}

func (p *Polyhedron) ToMap() map[string]interface{} {
	vertices := make([][]float64, len(p.Vertices))
	for i, v := range p.Vertices {
		vertices[i] = []float64{v[0], v[1], v[2]}
	}
	faces := make([][]int, len(p.Faces))
	planes := make([]map[string]interface{}, len(p.Faces))
	for i, f := range p.Faces {
		faces[i] = append([]int(nil), f.Loop...)
		planes[i] = f.Plane.ToMap()
	}
	return map[string]interface{}{
		"type":     "polyhedron",
		"vertices": vertices,
		"faces":    faces,
		"planes":   planes,
		"rho":      p.Rho,
	}
}

// FromMap reads vertices and faces; face planes are recomputed from the
// loops since only the geometry is needed to rebuild them.
func (p *Polyhedron) FromMap(data map[string]interface{}) error {
	var err error
	vs, ok := data["vertices"].([]interface{})
	if !ok {
		return fmt.Errorf("vertices is not a list")
	}
	p.Vertices = make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		if err = ToVec(v, &p.Vertices[i]); err != nil {
			return fmt.Errorf("vertices[%d]: %w", i, err)
		}
	}
	fs, ok := data["faces"].([]interface{})
	if !ok {
		return fmt.Errorf("faces is not a list")
	}
	p.Faces = make([]Face, len(fs))
	for i, f := range fs {
		idx, ok := f.([]interface{})
		if !ok {
			return fmt.Errorf("faces[%d] is not a list", i)
		}
		loop := make([]int, len(idx))
		for j, val := range idx {
			if loop[j], err = ToInt(val); err != nil {
				return fmt.Errorf("faces[%d][%d]: %w", i, j, err)
			}
			if loop[j] < 0 || loop[j] >= len(p.Vertices) {
				return fmt.Errorf("%w: faces[%d][%d]=%d out of range", ErrMalformedFace, i, j, loop[j])
			}
		}
		if len(loop) < 3 {
			return fmt.Errorf("%w: faces[%d] has %d vertices", ErrMalformedFace, i, len(loop))
		}
		p.Faces[i] = Face{Plane: planeOf(p.Vertices, loop), Loop: loop}
	}
	if _, ok := data["rho"]; !ok {
		p.Rho = 1.0
	} else if p.Rho, err = ToFloat64(data["rho"]); err != nil {
		return fmt.Errorf("rho is not a float64")
	}
	return nil
}

// Density is Rho inside the polyhedron and zero outside.
func (p *Polyhedron) Density(x, y, z float64) float64 {
	if p.Contains(mgl64.Vec3{x, y, z}, 0) {
		return p.Rho
	}
	return 0.0
}

// Contains reports whether x satisfies every face plane within eps.
func (p *Polyhedron) Contains(x mgl64.Vec3, eps float64) bool {
	if len(p.Faces) == 0 {
		return false
	}
	for _, f := range p.Faces {
		if !f.Plane.Contains(x, eps) {
			return false
		}
	}
	return true
}

// MinFeatureSize is the shortest edge length.
func (p *Polyhedron) MinFeatureSize() float64 {
	out := math.Inf(1)
	for _, f := range p.Faces {
		n := len(f.Loop)
		for k := 0; k < n; k++ {
			l := p.Vertices[f.Loop[(k+1)%n]].Sub(p.Vertices[f.Loop[k]]).Len()
			out = math.Min(out, l)
		}
	}
	return out
}

// Volume of the closed polyhedron by summing signed tetrahedra from the
// origin over a fan of every face.
func (p *Polyhedron) Volume() float64 {
	vol := 0.0
	for _, f := range p.Faces {
		v0 := p.Vertices[f.Loop[0]]
		for k := 1; k+1 < len(f.Loop); k++ {
			vol += v0.Dot(p.Vertices[f.Loop[k]].Cross(p.Vertices[f.Loop[k+1]]))
		}
	}
	return vol / 6
}

// Centroid is the volume centroid.
func (p *Polyhedron) Centroid() mgl64.Vec3 {
	var c mgl64.Vec3
	vol := 0.0
	for _, f := range p.Faces {
		v0 := p.Vertices[f.Loop[0]]
		for k := 1; k+1 < len(f.Loop); k++ {
			v1, v2 := p.Vertices[f.Loop[k]], p.Vertices[f.Loop[k+1]]
			d := v0.Dot(v1.Cross(v2))
			vol += d
			c = c.Add(v0.Add(v1).Add(v2).Mul(d))
		}
	}
	if vol == 0 {
		return c
	}
	return c.Mul(1 / (4 * vol))
}

// Edges returns the number of distinct undirected edges.
func (p *Polyhedron) Edges() int {
	seen := map[[2]int]bool{}
	for _, f := range p.Faces {
		n := len(f.Loop)
		for k := 0; k < n; k++ {
			a, b := f.Loop[k], f.Loop[(k+1)%n]
			if a > b {
				a, b = b, a
			}
			seen[[2]int{a, b}] = true
		}
	}
	return len(seen)
}

// Bounded reports whether no face lies on a bounding-box plane.
func (p *Polyhedron) Bounded() bool {
	for _, f := range p.Faces {
		if f.Plane.Bounding {
			return false
		}
	}
	return true
}

// Validate checks that every face has at least three in-range vertices,
// lying on the face plane within tol, wound to agree with the plane normal.
func (p *Polyhedron) Validate(tol float64) error {
	for i, f := range p.Faces {
		if len(f.Loop) < 3 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrMalformedFace, i, len(f.Loop))
		}
		for _, idx := range f.Loop {
			if idx < 0 || idx >= len(p.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrMalformedFace, i, idx, len(p.Vertices))
			}
			if d := f.Plane.Signed(p.Vertices[idx]); math.Abs(d) > tol {
				return fmt.Errorf("%w: vertex %d is %g off the plane of face %d", ErrMalformedFace, idx, d, i)
			}
		}
		if newell(p.Vertices, f.Loop).Dot(f.Plane.Normal) <= 0 {
			return fmt.Errorf("%w: face %d is wound against its normal", ErrMalformedFace, i)
		}
	}
	return nil
}

// newell returns the (area weighted) loop normal.
func newell(verts []mgl64.Vec3, loop []int) mgl64.Vec3 {
	var n mgl64.Vec3
	for k := range loop {
		a, b := verts[loop[k]], verts[loop[(k+1)%len(loop)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}

// orient returns loop wound so that its normal points along normal.
func orient(verts []mgl64.Vec3, loop []int, normal mgl64.Vec3) []int {
	if newell(verts, loop).Dot(normal) >= 0 {
		return loop
	}
	out := make([]int, len(loop))
	for i, idx := range loop {
		out[len(loop)-1-i] = idx
	}
	return out
}

func planeOf(verts []mgl64.Vec3, loop []int) HalfSpace {
	n := newell(verts, loop).Normalize()
	return HalfSpace{Normal: n, Offset: n.Dot(verts[loop[0]])}
}

// ToPolyhedron returns a copy with its own face loops.
func (p *Polyhedron) ToPolyhedron() Polyhedron {
	out := Polyhedron{Vertices: append([]mgl64.Vec3(nil), p.Vertices...), Faces: make([]Face, len(p.Faces)), Rho: p.Rho}
	for i, f := range p.Faces {
		out.Faces[i] = Face{Plane: f.Plane, Loop: append([]int(nil), f.Loop...)}
	}
	return out
}
