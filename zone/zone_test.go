package zone_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/zone"
)

const eps = 1e-6

func reciprocal(t *testing.T, a1, a2, a3 mgl64.Vec3) lattices.ReciprocalBasis {
	t.Helper()
	b, err := lattices.NewBasis(a1, a2, a3, eps)
	require.NoError(t, err)
	rb, err := lattices.Reciprocal(b, 1, nil, eps)
	require.NoError(t, err)
	return rb
}

// ZoneSuite builds the zones of the common Bravais lattices and checks
// their known shapes.
type ZoneSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ZoneSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ZoneSuite) build(rb lattices.ReciprocalBasis) *zone.Zone {
	z, err := zone.Build(s.ctx, rb, zone.DefaultOptions())
	s.Require().NoError(err)
	s.Require().NoError(z.Polyhedron.Validate(1e-9))
	s.Require().True(z.Polyhedron.Bounded())
	s.InDelta(z.CellVolume, z.Volume(), 1e-9*z.CellVolume)
	s.True(z.Symmetric(1e-9), "zone is not point symmetric")
	s.InDelta(0.0, z.Polyhedron.Centroid().Len(), 1e-9)
	s.Len(z.Planes, len(z.Polyhedron.Faces))
	s.GreaterOrEqual(z.Candidates, 124)
	return z
}

func (s *ZoneSuite) TestSimpleCubic() {
	rb := reciprocal(s.T(), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1})
	z := s.build(rb)
	s.Len(z.Polyhedron.Vertices, 8)
	s.Len(z.Polyhedron.Faces, 6)
	s.Equal(12, z.Polyhedron.Edges())
	for _, v := range z.Polyhedron.Vertices {
		for i := 0; i < 3; i++ {
			s.InDelta(0.5, math.Abs(v[i]), 1e-12)
		}
	}
	s.InDelta(1.0, z.Volume(), 1e-12)
}

func (s *ZoneSuite) TestFaceCenteredCubic() {
	// reciprocal of fcc is bcc: truncated octahedron
	rb := reciprocal(s.T(), mgl64.Vec3{0, 0.5, 0.5}, mgl64.Vec3{0.5, 0, 0.5}, mgl64.Vec3{0.5, 0.5, 0})
	z := s.build(rb)
	s.Len(z.Polyhedron.Vertices, 24)
	s.Len(z.Polyhedron.Faces, 14)
	s.Equal(36, z.Polyhedron.Edges())
	squares, hexagons := 0, 0
	for _, f := range z.Polyhedron.Faces {
		switch len(f.Loop) {
		case 4:
			squares++
		case 6:
			hexagons++
		}
	}
	s.Equal(6, squares)
	s.Equal(8, hexagons)
}

func (s *ZoneSuite) TestBodyCenteredCubic() {
	// reciprocal of bcc is fcc: rhombic dodecahedron
	rb := reciprocal(s.T(), mgl64.Vec3{-0.5, 0.5, 0.5}, mgl64.Vec3{0.5, -0.5, 0.5}, mgl64.Vec3{0.5, 0.5, -0.5})
	z := s.build(rb)
	s.Len(z.Polyhedron.Vertices, 14)
	s.Len(z.Polyhedron.Faces, 12)
	s.Equal(24, z.Polyhedron.Edges())
	for _, f := range z.Polyhedron.Faces {
		s.Len(f.Loop, 4)
	}
}

func (s *ZoneSuite) TestHexagonal() {
	rb := reciprocal(s.T(), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-0.5, math.Sqrt(3) / 2, 0}, mgl64.Vec3{0, 0, 1.6})
	z := s.build(rb)
	s.Len(z.Polyhedron.Vertices, 12)
	s.Len(z.Polyhedron.Faces, 8)
	s.Equal(18, z.Polyhedron.Edges())
}

func (s *ZoneSuite) TestTriclinic() {
	rb := reciprocal(s.T(), mgl64.Vec3{1.1, 0.1, -0.2}, mgl64.Vec3{0.3, 0.9, 0.15}, mgl64.Vec3{-0.25, 0.4, 1.3})
	z := s.build(rb)
	// Euler characteristic of a convex polyhedron
	p := z.Polyhedron
	s.Equal(2, len(p.Vertices)-p.Edges()+len(p.Faces))
}

func TestZoneSuite(t *testing.T) {
	suite.Run(t, new(ZoneSuite))
}

// Every vertex is at least as close to the origin as to any lattice point,
// and points inside the zone have the origin as their nearest lattice point.
func TestWignerSeitzProperty(t *testing.T) {
	rb := reciprocal(t, mgl64.Vec3{1.1, 0.1, -0.2}, mgl64.Vec3{0.3, 0.9, 0.15}, mgl64.Vec3{-0.25, 0.4, 1.3})
	z, err := zone.Build(context.Background(), rb, zone.DefaultOptions())
	require.NoError(t, err)

	pts, err := lattices.Generate(rb, lattices.GenerateOptions{Radius: 3, Shell: lattices.Cube, Epsilon: eps})
	require.NoError(t, err)
	for _, v := range z.Polyhedron.Vertices {
		for _, p := range pts {
			assert.LessOrEqual(t, v.Len(), v.Sub(p.Pos).Len()+1e-9, "vertex %v closer to %v", v, p.Index)
		}
	}

	rng := rand.New(rand.NewSource(7))
	r := 0.0
	for _, v := range z.Polyhedron.Vertices {
		r = math.Max(r, v.Len())
	}
	for i := 0; i < 500; i++ {
		x := mgl64.Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}.Mul(r)
		nearest := mgl64.Vec3{}
		for _, p := range pts {
			if x.Sub(p.Pos).Len() < x.Sub(nearest).Len() {
				nearest = p.Pos
			}
		}
		inside := z.Polyhedron.Density(x[0], x[1], x[2]) > 0
		assert.Equal(t, nearest == mgl64.Vec3{}, inside, "point %v", x)
	}
}

func TestInsufficientRadius(t *testing.T) {
	// nearest neighbour along y is b2 - 5 b1, far outside a radius-1 shell
	rb := lattices.ReciprocalBasis{B1: mgl64.Vec3{1, 0, 0}, B2: mgl64.Vec3{5, 1, 0}, B3: mgl64.Vec3{0, 0, 1}, Spacing: 1, Scale: 1}
	_, err := zone.Build(context.Background(), rb, zone.Options{Radius: 1, Epsilon: eps})
	assert.ErrorIs(t, err, zone.ErrInsufficientRadius)

	z, err := zone.Build(context.Background(), rb, zone.Options{Radius: 5, Epsilon: eps})
	require.NoError(t, err)
	assert.Len(t, z.Polyhedron.Vertices, 8)
	assert.InDelta(t, 1.0, z.Volume(), 1e-9)
}

func TestAdaptiveRadius(t *testing.T) {
	rb := lattices.ReciprocalBasis{B1: mgl64.Vec3{1, 0, 0}, B2: mgl64.Vec3{5, 1, 0}, B3: mgl64.Vec3{7, -3, 1}, Spacing: 1, Scale: 1}
	_, err := zone.Build(context.Background(), rb, zone.Options{Radius: 4, Epsilon: eps})
	assert.ErrorIs(t, err, zone.ErrInsufficientRadius)

	z, err := zone.Build(context.Background(), rb, zone.Options{Radius: 1, Epsilon: eps, Adaptive: true})
	require.NoError(t, err)
	assert.Len(t, z.Polyhedron.Vertices, 8)
	assert.Len(t, z.Polyhedron.Faces, 6)
	assert.InDelta(t, 1.0, z.Volume(), 1e-9)
	assert.True(t, z.Symmetric(1e-9))
}

func TestBuildDeterministic(t *testing.T) {
	rb := reciprocal(t, mgl64.Vec3{0, 0.5, 0.5}, mgl64.Vec3{0.5, 0, 0.5}, mgl64.Vec3{0.5, 0.5, 0})
	z1, err := zone.Build(context.Background(), rb, zone.DefaultOptions())
	require.NoError(t, err)
	z2, err := zone.Build(context.Background(), rb, zone.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, z1.Polyhedron, z2.Polyhedron)
}

func TestBuildCancelled(t *testing.T) {
	rb := reciprocal(t, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := zone.Build(ctx, rb, zone.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildInvalidRadius(t *testing.T) {
	rb := reciprocal(t, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1})
	_, err := zone.Build(context.Background(), rb, zone.Options{Radius: 0})
	assert.ErrorIs(t, err, lattices.ErrInvalidInput)
}
