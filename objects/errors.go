package objects

import "errors"

var (
	// ErrMalformedFace indicates a face with fewer than three vertices,
	// an out-of-range vertex index or a vertex off its own plane.
	ErrMalformedFace = errors.New("objects: malformed polyhedron face")
	// ErrEmptyPolyhedron indicates a clip removed every vertex.
	ErrEmptyPolyhedron = errors.New("objects: half-space intersection is empty")
)
