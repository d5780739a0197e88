package objects

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/vecmat"
)

// HalfSpace is the closed region Normal·x <= Offset. Normal has unit length.
type HalfSpace struct {
	Normal mgl64.Vec3
	Offset float64
	// lattice index of the point whose bisector this is
	Source [3]int
	// true for the planes of the initial bounding box
	Bounding bool
}

// Bisector returns the half-space of points closer to the origin than to p:
// the plane through p/2 perpendicular to p.
func Bisector(p mgl64.Vec3, index [3]int) HalfSpace {
	n, l := vecmat.Normalize(p)
	return HalfSpace{Normal: n, Offset: l / 2, Source: index}
}

// Signed is the signed distance of x from the plane, positive outside.
func (h HalfSpace) Signed(x mgl64.Vec3) float64 {
	return h.Normal.Dot(x) - h.Offset
}

func (h HalfSpace) Contains(x mgl64.Vec3, eps float64) bool {
	return h.Signed(x) <= eps
}

// Intersect returns the point where segment a-b crosses the plane. The
// endpoints must lie on opposite sides.
func (h HalfSpace) Intersect(a, b mgl64.Vec3) mgl64.Vec3 {
	sa, sb := h.Signed(a), h.Signed(b)
	t := sa / (sa - sb)
	return a.Add(b.Sub(a).Mul(t))
}

func (h HalfSpace) String() string {
	if h.Bounding {
		return fmt.Sprintf("HalfSpace{Normal: %v, Offset: %v, bounding}", h.Normal, h.Offset)
	}
	return fmt.Sprintf("HalfSpace{Normal: %v, Offset: %v, Source: %v}", h.Normal, h.Offset, h.Source)
}

func (h HalfSpace) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"normal":   h.Normal,
		"offset":   h.Offset,
		"source":   h.Source,
		"bounding": h.Bounding,
	}
}
