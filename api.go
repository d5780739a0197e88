// Package: main
// File: api.go
// Description: Request/response contract shared by the HTTP server, the CLI and the C API.
//
// Requests carry the direct basis and spacing; responses carry the reciprocal
// vectors plus either the lattice point cloud or the Brillouin zone mesh.
//
// Author: Ivan Grega
// License: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/engine"
	"github.com/igrega348/brillouin_zone/lattices"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// CalculateRequest is the body of both calculation endpoints.
type CalculateRequest struct {
	A1      []float64 `json:"a1" yaml:"a1"`
	A2      []float64 `json:"a2" yaml:"a2"`
	A3      []float64 `json:"a3" yaml:"a3"`
	Spacing *float64  `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

type ReciprocalVectors struct {
	B1 []float64 `json:"b1" yaml:"b1"`
	B2 []float64 `json:"b2" yaml:"b2"`
	B3 []float64 `json:"b3" yaml:"b3"`
}

type PointColumns struct {
	X []float64 `json:"x" yaml:"x"`
	Y []float64 `json:"y" yaml:"y"`
	Z []float64 `json:"z" yaml:"z"`
}

type LatticeResponse struct {
	ReciprocalLattice PointColumns      `json:"reciprocal_lattice" yaml:"reciprocal_lattice"`
	ReciprocalVectors ReciprocalVectors `json:"reciprocal_vectors" yaml:"reciprocal_vectors"`
}

type ZoneResponse struct {
	Vertices          [][]float64       `json:"vertices" yaml:"vertices"`
	Simplices         [][3]int          `json:"simplices" yaml:"simplices"`
	ReciprocalVectors ReciprocalVectors `json:"reciprocal_vectors" yaml:"reciprocal_vectors"`
	Faces             [][]int           `json:"faces" yaml:"faces"`
	Volume            float64           `json:"volume" yaml:"volume"`
	BoundingPlanes    int               `json:"bounding_planes" yaml:"bounding_planes"`
}

type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
}

// decodeRequest parses a JSON body. Anything that does not decode into
// numbers is an invalid-input error.
func decodeRequest(r io.Reader) (engine.Request, error) {
	var body CalculateRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		return engine.Request{}, fmt.Errorf("%w: malformed request body: %v", lattices.ErrInvalidInput, err)
	}
	return body.toEngine()
}

// toEngine checks every vector has exactly three finite components.
// A missing spacing defaults to 1.
func (r CalculateRequest) toEngine() (engine.Request, error) {
	req := engine.Request{Spacing: 1.0}
	vectors := []struct {
		name string
		in   []float64
		out  *mgl64.Vec3
	}{
		{"a1", r.A1, &req.A1},
		{"a2", r.A2, &req.A2},
		{"a3", r.A3, &req.A3},
	}
	for _, v := range vectors {
		if v.in == nil {
			return engine.Request{}, fmt.Errorf("%w: %s is required", lattices.ErrInvalidInput, v.name)
		}
		if len(v.in) != 3 {
			return engine.Request{}, fmt.Errorf("%w: %s must have 3 components, got %d", lattices.ErrInvalidInput, v.name, len(v.in))
		}
		for i, x := range v.in {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return engine.Request{}, fmt.Errorf("%w: %s[%d] is not finite", lattices.ErrInvalidInput, v.name, i)
			}
		}
		copy(v.out[:], v.in)
	}
	if r.Spacing != nil {
		req.Spacing = *r.Spacing
	}
	if req.Spacing <= 0 {
		return engine.Request{}, fmt.Errorf("%w: got %v", lattices.ErrInvalidSpacing, req.Spacing)
	}
	return req, nil
}

func vec(v mgl64.Vec3) []float64 {
	return []float64{v[0], v[1], v[2]}
}

func newReciprocalVectors(rb lattices.ReciprocalBasis) ReciprocalVectors {
	return ReciprocalVectors{B1: vec(rb.B1), B2: vec(rb.B2), B3: vec(rb.B3)}
}

func newLatticeResponse(res *engine.LatticeResult) LatticeResponse {
	column := func(axis int) []float64 {
		return lo.Map(res.Points, func(p lattices.Point, _ int) float64 { return p.Pos[axis] })
	}
	return LatticeResponse{
		ReciprocalLattice: PointColumns{X: column(0), Y: column(1), Z: column(2)},
		ReciprocalVectors: newReciprocalVectors(res.Reciprocal),
	}
}

func newZoneResponse(res *engine.ZoneResult) ZoneResponse {
	p := res.Zone.Polyhedron
	return ZoneResponse{
		Vertices:          lo.Map(res.Mesh.Vertices, func(v mgl64.Vec3, _ int) []float64 { return vec(v) }),
		Simplices:         res.Mesh.Triangles,
		ReciprocalVectors: newReciprocalVectors(res.Reciprocal),
		Faces: lo.Map(p.Faces, func(f objects.Face, _ int) []int {
			return append([]int(nil), f.Loop...)
		}),
		Volume:         p.Volume(),
		BoundingPlanes: len(res.Zone.Planes),
	}
}

// handleJSON runs one calculation on a JSON payload and always returns a
// JSON document: the response on success, ErrorResponse otherwise.
func handleJSON(ctx context.Context, endpoint string, payload []byte, cfg Config) ([]byte, int) {
	var out interface{}
	status := http.StatusOK
	req, err := decodeRequest(bytes.NewReader(payload))
	if err == nil {
		switch endpoint {
		case "lattice":
			var res *engine.LatticeResult
			if res, err = engine.Lattice(ctx, req, cfg.Config); err == nil {
				out = newLatticeResponse(res)
			}
		case "brillouin":
			var res *engine.ZoneResult
			if res, err = engine.BrillouinZone(ctx, req, cfg.Config); err == nil {
				out = newZoneResponse(res)
			}
		default:
			err = fmt.Errorf("unknown endpoint `%s`", endpoint)
		}
	}
	if err != nil {
		kind := engine.Classify(err)
		status = kind.Status()
		out = ErrorResponse{Error: err.Error()}
	}
	data, merr := json.Marshal(out)
	if merr != nil {
		data, _ = json.Marshal(ErrorResponse{Error: "Failed to marshal result: " + merr.Error()})
		status = http.StatusInternalServerError
	}
	return data, status
}

// setLogLevel points the global logger at stderr, keeping stdout free for
// results, and sets the global level. Unknown names fall back to "error".
func setLogLevel(levelStr string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
}
