package objects

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Clip intersects p with h and returns the result as a new polyhedron;
// p is left untouched. Vertex indices of p stay valid in the result, new
// vertices are appended to the arena. removed is false when h cuts
// nothing away, in which case p itself is returned.
//
// Vertices with |signed distance| <= eps count as lying on the plane.
func (p Polyhedron) Clip(h HalfSpace, eps float64) (clipped Polyhedron, removed bool, err error) {
	side := make([]float64, len(p.Vertices))
	inside, outside := 0, 0
	for _, idx := range p.referenced() {
		s := h.Signed(p.Vertices[idx])
		side[idx] = s
		if s > eps {
			outside++
		} else {
			inside++
		}
	}
	if outside == 0 {
		return p, false, nil
	}
	if inside == 0 {
		return Polyhedron{}, true, ErrEmptyPolyhedron
	}

	verts := make([]mgl64.Vec3, len(p.Vertices), len(p.Vertices)+2*len(p.Faces))
	copy(verts, p.Vertices)
	cuts := map[[2]int]int{}
	var rim []int
	onRim := map[int]bool{}
	addRim := func(idx int) {
		if !onRim[idx] {
			onRim[idx] = true
			rim = append(rim, idx)
		}
	}
	cut := func(a, b int) int {
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if idx, ok := cuts[key]; ok {
			return idx
		}
		// always interpolate from the lower index so both faces sharing
		// the edge get the identical point
		t := side[a] / (side[a] - side[b])
		verts = append(verts, verts[a].Add(verts[b].Sub(verts[a]).Mul(t)))
		cuts[key] = len(verts) - 1
		return len(verts) - 1
	}

	faces := make([]Face, 0, len(p.Faces)+1)
	for _, f := range p.Faces {
		n := len(f.Loop)
		loop := make([]int, 0, n+1)
		for k := 0; k < n; k++ {
			a, b := f.Loop[k], f.Loop[(k+1)%n]
			sa, sb := side[a], side[b]
			if sa <= eps {
				loop = append(loop, a)
				if sa >= -eps {
					addRim(a)
				}
			}
			if (sa < -eps && sb > eps) || (sa > eps && sb < -eps) {
				c := cut(a, b)
				loop = append(loop, c)
				addRim(c)
			}
		}
		loop = dedupLoop(loop)
		if len(loop) >= 3 {
			faces = append(faces, Face{Plane: f.Plane, Loop: loop})
		}
	}
	if capLoop := orderAround(verts, rim, h.Normal); len(capLoop) >= 3 {
		faces = append(faces, Face{Plane: h, Loop: capLoop})
	}
	return Polyhedron{Vertices: verts, Faces: faces, Rho: p.Rho}, true, nil
}

// Compact merges vertices closer than tol, removes vertices lying in the
// middle of an edge, drops degenerate faces, rewinds every face against
// its plane normal and renumbers the vertices densely in order of first
// use.
func (p Polyhedron) Compact(tol float64) Polyhedron {
	// merge near-duplicates onto the first representative
	repr := map[int]int{}
	var kept []int
	for _, idx := range p.referenced() {
		repr[idx] = idx
		for _, k := range kept {
			if p.Vertices[k].Sub(p.Vertices[idx]).Len() <= tol {
				repr[idx] = k
				break
			}
		}
		if repr[idx] == idx {
			kept = append(kept, idx)
		}
	}
	faces := make([]Face, 0, len(p.Faces))
	for _, f := range p.Faces {
		loop := make([]int, len(f.Loop))
		for i, idx := range f.Loop {
			loop[i] = repr[idx]
		}
		faces = append(faces, Face{Plane: f.Plane, Loop: dedupLoop(loop)})
	}

	// a vertex that is straight in any face sits inside an edge
	for {
		straight := map[int]bool{}
		for _, f := range faces {
			n := len(f.Loop)
			if n < 3 {
				continue
			}
			for k := 0; k < n; k++ {
				prev, cur, next := p.Vertices[f.Loop[(k+n-1)%n]], p.Vertices[f.Loop[k]], p.Vertices[f.Loop[(k+1)%n]]
				// distance of cur from the line prev-next
				span := next.Sub(prev).Len()
				if span > 0 && prev.Sub(cur).Cross(next.Sub(cur)).Len()/span <= tol {
					straight[f.Loop[k]] = true
				}
			}
		}
		if len(straight) == 0 {
			break
		}
		for i, f := range faces {
			loop := f.Loop[:0:0]
			for _, idx := range f.Loop {
				if !straight[idx] {
					loop = append(loop, idx)
				}
			}
			faces[i].Loop = loop
		}
	}

	out := Polyhedron{Rho: p.Rho}
	renum := map[int]int{}
	for _, f := range faces {
		if len(f.Loop) < 3 {
			continue
		}
		loop := make([]int, len(f.Loop))
		for i, idx := range f.Loop {
			n, ok := renum[idx]
			if !ok {
				n = len(out.Vertices)
				renum[idx] = n
				out.Vertices = append(out.Vertices, p.Vertices[idx])
			}
			loop[i] = n
		}
		out.Faces = append(out.Faces, Face{Plane: f.Plane, Loop: orient(out.Vertices, loop, f.Plane.Normal)})
	}
	return out
}

// referenced lists vertex indices used by faces, in order of first use.
func (p Polyhedron) referenced() []int {
	seen := map[int]bool{}
	var out []int
	for _, f := range p.Faces {
		for _, idx := range f.Loop {
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	}
	return out
}

// dedupLoop removes consecutive repeats, including across the wrap.
func dedupLoop(loop []int) []int {
	out := loop[:0:0]
	for _, idx := range loop {
		if len(out) > 0 && out[len(out)-1] == idx {
			continue
		}
		out = append(out, idx)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// orderAround sorts coplanar points counter-clockwise around normal,
// measured about their mean.
func orderAround(verts []mgl64.Vec3, idx []int, normal mgl64.Vec3) []int {
	if len(idx) < 3 {
		return nil
	}
	var c mgl64.Vec3
	for _, i := range idx {
		c = c.Add(verts[i])
	}
	c = c.Mul(1 / float64(len(idx)))

	axis := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal[0]) > 0.9 {
		axis = mgl64.Vec3{0, 1, 0}
	}
	u := normal.Cross(axis).Normalize()
	w := normal.Cross(u)

	angle := make(map[int]float64, len(idx))
	for _, i := range idx {
		d := verts[i].Sub(c)
		angle[i] = math.Atan2(d.Dot(w), d.Dot(u))
	}
	out := append([]int(nil), idx...)
	sort.SliceStable(out, func(a, b int) bool {
		if angle[out[a]] != angle[out[b]] {
			return angle[out[a]] < angle[out[b]]
		}
		return out[a] < out[b]
	})
	return out
}
