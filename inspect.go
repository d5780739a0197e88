// Package: main
// File: inspect.go
// Description: Reads an object file (box, parallelepiped or polyhedron), checks it and re-triangulates it.
//
// Author: Ivan Grega
// License: MIT
package main

import (
	"fmt"

	"github.com/igrega348/brillouin_zone/mesh"
	"github.com/igrega348/brillouin_zone/objects"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

type InspectResponse struct {
	Object         string      `json:"object" yaml:"object"`
	Vertices       [][]float64 `json:"vertices" yaml:"vertices"`
	Simplices      [][3]int    `json:"simplices" yaml:"simplices"`
	Faces          int         `json:"faces" yaml:"faces"`
	Edges          int         `json:"edges" yaml:"edges"`
	Volume         float64     `json:"volume" yaml:"volume"`
	MinFeatureSize float64     `json:"min_feature_size" yaml:"min_feature_size"`
	ContainsOrigin bool        `json:"contains_origin" yaml:"contains_origin"`
}

// inspectObject loads fn through the object factory, checks the face
// geometry and triangulates it the way the zone endpoint does.
func inspectObject(fn string, cfg Config) (InspectResponse, error) {
	var data map[string]interface{}
	if err := readStructured(fn, &data); err != nil {
		return InspectResponse{}, err
	}
	obj, err := (&objects.ObjectFactory{}).Create(data)
	if err != nil {
		return InspectResponse{}, fmt.Errorf("%s: %w", fn, err)
	}
	log.Debug().Msgf("Loaded %v", obj)

	poly := obj.ToPolyhedron()
	tol := cfg.Epsilon * (1 + poly.MinFeatureSize())
	if err := poly.Validate(tol); err != nil {
		return InspectResponse{}, err
	}
	triangulate, err := mesh.ByName(cfg.Triangulation)
	if err != nil {
		return InspectResponse{}, err
	}
	m, err := triangulate(&poly, cfg.Epsilon)
	if err != nil {
		return InspectResponse{}, err
	}
	if err := m.Validate(); err != nil {
		return InspectResponse{}, err
	}
	log.Debug().Msgf("Triangulated into %d triangles", m.TriangleCount())

	verts := make([][]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		verts[i] = []float64{v[0], v[1], v[2]}
	}
	return InspectResponse{
		Object:         obj.String(),
		Vertices:       verts,
		Simplices:      m.Triangles,
		Faces:          len(poly.Faces),
		Edges:          poly.Edges(),
		Volume:         poly.Volume(),
		MinFeatureSize: obj.MinFeatureSize(),
		ContainsOrigin: obj.Density(0, 0, 0) > 0,
	}, nil
}

func inspect(cCtx *cli.Context) error {
	defer timer()()
	res, err := inspectObject(cCtx.String("input"), cfg)
	if err != nil {
		return err
	}
	log.Info().Msgf("%s: %d faces, %d edges, %d triangles, volume %g", res.Object, res.Faces, res.Edges, len(res.Simplices), res.Volume)
	return writeStructured(cCtx.String("output"), res)
}
