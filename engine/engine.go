// Package engine runs the full computation for one request: reciprocal
// basis, lattice point cloud, Brillouin zone and its triangle mesh. Every
// call is independent and keeps no state between requests.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/conventions"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/mesh"
	"github.com/igrega348/brillouin_zone/vecmat"
	"github.com/igrega348/brillouin_zone/zone"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Epsilon        float64 `yaml:"epsilon" json:"epsilon"`
	NeighborRadius int     `yaml:"neighbor_radius" json:"neighbor_radius"`
	AdaptiveRadius bool    `yaml:"adaptive_radius" json:"adaptive_radius"`
	RadiusRetries  int     `yaml:"radius_retries" json:"radius_retries"`
	DisplayRadius  int     `yaml:"display_radius" json:"display_radius"`
	DisplayShell   string  `yaml:"display_shell" json:"display_shell"`
	Convention     string  `yaml:"convention" json:"convention"`
	Triangulation  string  `yaml:"triangulation" json:"triangulation"`
}

// MaxRadius bounds every integer index radius a Config may ask for,
// after retries have doubled it.
const MaxRadius = 16

func DefaultConfig() Config {
	return Config{
		Epsilon:        vecmat.DefaultEpsilon,
		NeighborRadius: 2,
		AdaptiveRadius: true,
		RadiusRetries:  1,
		DisplayRadius:  2,
		DisplayShell:   "octahedral",
		Convention:     conventions.Default,
		Triangulation:  "fan",
	}
}

// Request is a direct basis and the spacing that scales its reciprocal.
type Request struct {
	A1, A2, A3 mgl64.Vec3
	Spacing    float64
}

type LatticeResult struct {
	Basis      lattices.Basis
	Reciprocal lattices.ReciprocalBasis
	Points     []lattices.Point
}

type ZoneResult struct {
	Basis      lattices.Basis
	Reciprocal lattices.ReciprocalBasis
	Zone       *zone.Zone
	Mesh       *mesh.Mesh
	// number of zone builds, more than one when the radius was enlarged
	Attempts int
}

func reciprocal(req Request, cfg Config) (lattices.Basis, lattices.ReciprocalBasis, error) {
	conv, err := conventions.NewConvention(cfg.Convention)
	if err != nil {
		return lattices.Basis{}, lattices.ReciprocalBasis{}, fmt.Errorf("%w: %v", lattices.ErrInvalidInput, err)
	}
	basis, err := lattices.NewBasis(req.A1, req.A2, req.A3, cfg.Epsilon)
	if err != nil {
		return lattices.Basis{}, lattices.ReciprocalBasis{}, err
	}
	rb, err := lattices.Reciprocal(basis, req.Spacing, conv, cfg.Epsilon)
	if err != nil {
		return lattices.Basis{}, lattices.ReciprocalBasis{}, err
	}
	log.Debug().Msgf("Reciprocal basis %v (residual %g)", rb, rb.Residual(basis))
	return basis, rb, nil
}

// Lattice computes the reciprocal basis and the display point cloud,
// origin included.
func Lattice(ctx context.Context, req Request, cfg Config) (*LatticeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	basis, rb, err := reciprocal(req, cfg)
	if err != nil {
		return nil, err
	}
	shell, err := lattices.ParseShell(cfg.DisplayShell)
	if err != nil {
		return nil, err
	}
	opts := lattices.DefaultGenerateOptions()
	opts.Radius, opts.Shell, opts.Epsilon = cfg.DisplayRadius, shell, cfg.Epsilon
	opts.IncludeOrigin = true
	points, err := lattices.Generate(rb, opts)
	if err != nil {
		return nil, err
	}
	return &LatticeResult{Basis: basis, Reciprocal: rb, Points: points}, nil
}

// BrillouinZone builds the zone and its mesh. An insufficient neighbour
// radius is retried with the radius doubled, up to cfg.RadiusRetries
// times.
func BrillouinZone(ctx context.Context, req Request, cfg Config) (*ZoneResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	triangulate, err := mesh.ByName(cfg.Triangulation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", lattices.ErrInvalidInput, err)
	}
	basis, rb, err := reciprocal(req, cfg)
	if err != nil {
		return nil, err
	}

	res := &ZoneResult{Basis: basis, Reciprocal: rb}
	opts := zone.DefaultOptions()
	opts.Radius, opts.Epsilon, opts.Adaptive = cfg.NeighborRadius, cfg.Epsilon, cfg.AdaptiveRadius
	for {
		res.Attempts++
		z, err := zone.Build(ctx, rb, opts)
		if err == nil {
			res.Zone = z
			break
		}
		if !errors.Is(err, zone.ErrInsufficientRadius) || res.Attempts > cfg.RadiusRetries {
			return nil, err
		}
		log.Warn().Msgf("Neighbour radius %d too small (%v), retrying with %d", opts.Radius, err, 2*opts.Radius)
		opts.Radius *= 2
	}

	tol := cfg.Epsilon * rb.MaxLen()
	if err := res.Zone.Polyhedron.Validate(tol); err != nil {
		log.Error().Err(err).Msgf("Zone builder produced an invalid polyhedron for %v", basis)
		return nil, fmt.Errorf("%w: %v", mesh.ErrInvariantViolation, err)
	}
	m, err := triangulate(&res.Zone.Polyhedron, tol)
	if err == nil && m.IsEmpty() {
		err = fmt.Errorf("%w: no triangles", mesh.ErrInvariantViolation)
	}
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		log.Error().Err(err).Msgf("Triangulation failed for %v", basis)
		return nil, err
	}
	res.Mesh = m
	if !res.Zone.Symmetric(tol) {
		log.Warn().Msgf("Zone for %v is not point symmetric within %g", basis, tol)
	}
	return res, nil
}
