package mesh

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/igrega348/brillouin_zone/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZone(t *testing.T, a1, a2, a3 mgl64.Vec3) *objects.Polyhedron {
	t.Helper()
	b, err := lattices.NewBasis(a1, a2, a3, 1e-6)
	require.NoError(t, err)
	rb, err := lattices.Reciprocal(b, 1, nil, 1e-6)
	require.NoError(t, err)
	z, err := zone.Build(context.Background(), rb, zone.DefaultOptions())
	require.NoError(t, err)
	return &z.Polyhedron
}

// faceArea sums the polygon areas from the Newell normals.
func faceArea(p *objects.Polyhedron) float64 {
	a := 0.0
	for _, f := range p.Faces {
		var n mgl64.Vec3
		for k := range f.Loop {
			n = n.Add(p.Vertices[f.Loop[k]].Cross(p.Vertices[f.Loop[(k+1)%len(f.Loop)]]))
		}
		a += n.Len() / 2
	}
	return a
}

func TestFanCube(t *testing.T) {
	p := buildZone(t, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1})
	m, err := Fan(p, 1e-6)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 12, m.TriangleCount())
	assert.False(t, m.IsEmpty())
	assert.InDelta(t, 6.0, m.Area(), 1e-12)
}

func TestTriangulationsTileFaces(t *testing.T) {
	bases := map[string][3]mgl64.Vec3{
		"fcc":       {{0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}},
		"bcc":       {{-0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, -0.5}},
		"triclinic": {{1.1, 0.1, -0.2}, {0.3, 0.9, 0.15}, {-0.25, 0.4, 1.3}},
	}
	for name, b := range bases {
		t.Run(name, func(t *testing.T) {
			p := buildZone(t, b[0], b[1], b[2])
			want := faceArea(p)
			for _, method := range []string{"fan", "hull"} {
				tri, err := ByName(method)
				require.NoError(t, err)
				m, err := tri(p, 1e-9)
				require.NoError(t, err, method)
				require.NoError(t, m.Validate(), method)
				// every vertex of a convex polyhedron is extreme: 2V-4 triangles
				assert.Equal(t, 2*len(p.Vertices)-4, m.TriangleCount(), method)
				assert.InDelta(t, want, m.Area(), 1e-9, method)
				// outward winding
				for _, tr := range m.Triangles {
					mid := m.Vertices[tr[0]].Add(m.Vertices[tr[1]]).Add(m.Vertices[tr[2]])
					assert.Greater(t, m.normal(tr).Dot(mid), 0.0, method)
				}
			}
		})
	}
}

func TestFanMalformedFace(t *testing.T) {
	p := objects.NewCube(0.5).ToPolyhedron()
	p.Faces[3].Loop = p.Faces[3].Loop[:2]
	_, err := Fan(&p, 1e-6)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestHullTooFewVertices(t *testing.T) {
	p := &objects.Polyhedron{Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	_, err := Hull(p, 1e-6)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestValidate(t *testing.T) {
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tetra := [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
	require.NoError(t, (&Mesh{Vertices: verts, Triangles: tetra}).Validate())

	tests := []struct {
		name      string
		triangles [][3]int
	}{
		{"OutOfRange", [][3]int{{0, 1, 7}}},
		{"Repeated", [][3]int{{0, 1, 1}}},
		{"Open", tetra[:3]},
		{"Flipped", [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Mesh{Vertices: verts, Triangles: tt.triangles}).Validate()
			assert.ErrorIs(t, err, ErrInvariantViolation)
		})
	}
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("delaunay")
	assert.Error(t, err)
}
