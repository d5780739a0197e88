package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/mesh"
	"github.com/igrega348/brillouin_zone/vecmat"
	"github.com/igrega348/brillouin_zone/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cubic = Request{A1: mgl64.Vec3{1, 0, 0}, A2: mgl64.Vec3{0, 1, 0}, A3: mgl64.Vec3{0, 0, 1}, Spacing: 1}

func TestBrillouinZoneSimpleCubic(t *testing.T) {
	res, err := BrillouinZone(context.Background(), cubic, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, res.Reciprocal.B1)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, res.Reciprocal.B2)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, res.Reciprocal.B3)
	assert.Len(t, res.Zone.Polyhedron.Vertices, 8)
	assert.Len(t, res.Zone.Polyhedron.Faces, 6)
	assert.Equal(t, 12, res.Mesh.TriangleCount())
	assert.Equal(t, 1, res.Attempts)
	assert.InDelta(t, 1.0, res.Zone.Volume(), 1e-12)
}

func TestBrillouinZoneHullTriangulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Triangulation = "hull"
	res, err := BrillouinZone(context.Background(), cubic, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Mesh.TriangleCount())
}

func TestBrillouinZoneIdempotent(t *testing.T) {
	req := Request{A1: mgl64.Vec3{1.1, 0.1, -0.2}, A2: mgl64.Vec3{0.3, 0.9, 0.15}, A3: mgl64.Vec3{-0.25, 0.4, 1.3}, Spacing: 2.5}
	first, err := BrillouinZone(context.Background(), req, DefaultConfig())
	require.NoError(t, err)
	second, err := BrillouinZone(context.Background(), req, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, first.Mesh, second.Mesh)
	assert.Equal(t, first.Zone.Polyhedron, second.Zone.Polyhedron)
}

func TestBrillouinZoneSpacingScales(t *testing.T) {
	cfg := DefaultConfig()
	req := cubic
	req.Spacing = 2
	res, err := BrillouinZone(context.Background(), req, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, res.Zone.Volume(), 1e-9)

	cfg.Convention = "physics"
	res, err = BrillouinZone(context.Background(), cubic, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2*3.141592653589793, res.Reciprocal.B1[0], 1e-12)
}

func TestBrillouinZoneRetriesRadius(t *testing.T) {
	// reciprocal basis (1,0,0), (5,1,0), (0,0,1): the y neighbour has index (-5,1,0)
	req := Request{A1: mgl64.Vec3{1, -5, 0}, A2: mgl64.Vec3{0, 1, 0}, A3: mgl64.Vec3{0, 0, 1}, Spacing: 1}
	cfg := DefaultConfig()
	cfg.NeighborRadius = 3
	cfg.AdaptiveRadius = false

	cfg.RadiusRetries = 0
	_, err := BrillouinZone(context.Background(), req, cfg)
	require.ErrorIs(t, err, zone.ErrInsufficientRadius)
	assert.Equal(t, KindInsufficientRadius, Classify(err))

	cfg.RadiusRetries = 1
	res, err := BrillouinZone(context.Background(), req, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 6, res.Zone.Radius)
	assert.InDelta(t, 1.0, res.Zone.Volume(), 1e-9)
	assert.Len(t, res.Zone.Polyhedron.Vertices, 8)
}

func TestBrillouinZoneSkewedBasis(t *testing.T) {
	// the face-defining neighbours have indices beyond 4 over this basis
	req := Request{A1: mgl64.Vec3{1, 0, 0}, A2: mgl64.Vec3{5, 1, 0}, A3: mgl64.Vec3{1.5, 3.5, 1}, Spacing: 1}
	res, err := BrillouinZone(context.Background(), req, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.InDelta(t, 1.0, res.Zone.Volume(), 1e-9)
	assert.Len(t, res.Zone.Polyhedron.Vertices, 24)
	assert.Len(t, res.Zone.Polyhedron.Faces, 14)

	cfg := DefaultConfig()
	cfg.AdaptiveRadius = false
	_, err = BrillouinZone(context.Background(), req, cfg)
	assert.ErrorIs(t, err, zone.ErrInsufficientRadius)
}

// Random bases must all produce a closed, point-symmetric zone whose
// volume equals the reciprocal cell volume.
func TestBrillouinZoneRandomBases(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cfg := DefaultConfig()
	gauss := func() mgl64.Vec3 {
		return mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}
	tested := 0
	for tested < 300 {
		req := Request{A1: gauss(), A2: gauss(), A3: gauss(), Spacing: 1}
		if math.Abs(vecmat.Det3(req.A1, req.A2, req.A3)) < 0.05 {
			continue
		}
		tested++
		res, err := BrillouinZone(context.Background(), req, cfg)
		require.NoError(t, err, "basis %v %v %v", req.A1, req.A2, req.A3)
		assert.Equal(t, 1, res.Attempts)
		tol := 1e-7 * res.Reciprocal.MaxLen()
		assert.True(t, res.Zone.Symmetric(tol), "basis %v %v %v is not symmetric", req.A1, req.A2, req.A3)
		cell := math.Abs(res.Reciprocal.Volume())
		assert.InDelta(t, cell, res.Zone.Volume(), 1e-6*cell)
		assert.NoError(t, res.Mesh.Validate())
		assert.Equal(t, 2*res.Mesh.VertexCount()-4, res.Mesh.TriangleCount())
	}
}

func TestDegenerateBasisIsAbsolute(t *testing.T) {
	tiny := Request{A1: mgl64.Vec3{1e-3, 0, 0}, A2: mgl64.Vec3{0, 1e-3, 0}, A3: mgl64.Vec3{0, 0, 1e-3}, Spacing: 1}
	_, err := BrillouinZone(context.Background(), tiny, DefaultConfig())
	assert.Equal(t, KindDegenerateBasis, Classify(err))

	flat := Request{A1: mgl64.Vec3{1000, 0, 0}, A2: mgl64.Vec3{0, 1000, 0}, A3: mgl64.Vec3{1000, 1000, 1e-6}, Spacing: 1}
	_, err = Lattice(context.Background(), flat, DefaultConfig())
	assert.NoError(t, err)
}

func TestLatticePointCloud(t *testing.T) {
	res, err := Lattice(context.Background(), cubic, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, res.Points, 25)
	found := false
	for _, p := range res.Points {
		if p.Index == [3]int{0, 0, 0} {
			found = true
		}
	}
	assert.True(t, found, "origin missing from the display cloud")

	cfg := DefaultConfig()
	cfg.DisplayShell = "cube"
	cfg.DisplayRadius = 1
	res, err = Lattice(context.Background(), cubic, cfg)
	require.NoError(t, err)
	assert.Len(t, res.Points, 27)
}

func TestErrorKinds(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  Request
		cfg  func(*Config)
		kind Kind
	}{
		{"Coplanar", Request{A1: mgl64.Vec3{1, 0, 0}, A2: mgl64.Vec3{2, 0, 0}, A3: mgl64.Vec3{0, 1, 0}, Spacing: 1}, nil, KindDegenerateBasis},
		{"ZeroSpacing", Request{A1: cubic.A1, A2: cubic.A2, A3: cubic.A3, Spacing: 0}, nil, KindInvalidInput},
		{"NegativeSpacing", Request{A1: cubic.A1, A2: cubic.A2, A3: cubic.A3, Spacing: -1}, nil, KindInvalidInput},
		{"UnknownConvention", cubic, func(c *Config) { c.Convention = "nope" }, KindInvalidInput},
		{"UnknownTriangulation", cubic, func(c *Config) { c.Triangulation = "nope" }, KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			_, err := BrillouinZone(ctx, tt.req, cfg)
			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err), "%v", err)
			_, err = Lattice(ctx, tt.req, cfg)
			if tt.name != "UnknownTriangulation" {
				assert.Equal(t, tt.kind, Classify(err), "%v", err)
			}
		})
	}
}

func TestBrillouinZoneDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BrillouinZone(ctx, cubic, DefaultConfig())
	assert.Equal(t, KindTimeout, Classify(err))
	assert.Equal(t, http.StatusGatewayTimeout, Classify(err).Status())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{fmt.Errorf("wrapped: %w", lattices.ErrInvalidSpacing), KindInvalidInput, http.StatusBadRequest},
		{vecmat.ErrDegenerateBasis, KindDegenerateBasis, http.StatusBadRequest},
		{zone.ErrInsufficientRadius, KindInsufficientRadius, http.StatusUnprocessableEntity},
		{mesh.ErrInvariantViolation, KindInvariantViolation, http.StatusInternalServerError},
		{context.DeadlineExceeded, KindTimeout, http.StatusGatewayTimeout},
		{errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, Classify(tt.err))
			assert.Equal(t, tt.status, Classify(tt.err).Status())
		})
	}
}
