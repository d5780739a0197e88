package objects

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/igrega348/brillouin_zone/vecmat"
)

// Object is a solid that can be stored in an object file and turned into
// a closed polyhedron for validation and triangulation.
type Object interface {
	// Density is Rho inside the solid and zero outside.
	Density(x, y, z float64) float64
	ToMap() map[string]interface{}
	FromMap(data map[string]interface{}) error
	// MinFeatureSize is the length of the shortest edge.
	MinFeatureSize() float64
	ToPolyhedron() Polyhedron
	String() string
}

// Box is an axis-aligned cuboid. The zone builder starts from one.
type Box struct {
	Center mgl64.Vec3
	Sides  mgl64.Vec3
	Rho    float64
}

func (b *Box) String() string {
	return fmt.Sprintf("Box{%v ± %v}", b.Center, b.Sides.Mul(0.5))
}

func (b *Box) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":   "box",
		"center": []float64{b.Center[0], b.Center[1], b.Center[2]},
		"sides":  []float64{b.Sides[0], b.Sides[1], b.Sides[2]},
		"rho":    b.Rho,
	}
}

func (b *Box) FromMap(data map[string]interface{}) error {
	if err := ToVec(data["center"], &b.Center); err != nil {
		return fmt.Errorf("center: %w", err)
	}
	if err := ToVec(data["sides"], &b.Sides); err != nil {
		return fmt.Errorf("sides: %w", err)
	}
	for i, side := range b.Sides {
		if !(side > 0) {
			return fmt.Errorf("sides[%d] must be positive, got %v", i, side)
		}
	}
	rho, err := readRho(data)
	b.Rho = rho
	return err
}

func (b *Box) Density(x, y, z float64) float64 {
	d := mgl64.Vec3{x, y, z}.Sub(b.Center)
	for i := range d {
		if math.Abs(d[i]) > 0.5*b.Sides[i] {
			return 0.0
		}
	}
	return b.Rho
}

func (b *Box) MinFeatureSize() float64 {
	return math.Min(b.Sides[0], math.Min(b.Sides[1], b.Sides[2]))
}

// NewCube returns an axis-aligned cube of side 2*half centred at the origin.
func NewCube(half float64) *Box {
	return &Box{Sides: mgl64.Vec3{2 * half, 2 * half, 2 * half}, Rho: 1.0}
}

// ToPolyhedron returns the box as a closed polyhedron whose six faces are
// marked as bounding planes.
func (b *Box) ToPolyhedron() Polyhedron {
	h := b.Sides.Mul(0.5)
	corner := b.Center.Sub(h)
	p := cellPolyhedron(corner, [3]mgl64.Vec3{{b.Sides[0], 0, 0}, {0, b.Sides[1], 0}, {0, 0, b.Sides[2]}})
	for i := range p.Faces {
		p.Faces[i].Plane.Bounding = true
	}
	p.Rho = b.Rho
	return p
}

// cellPolyhedron builds the parallelepiped origin + Σ t_i·e_i, t_i in [0,1].
// Vertex i has bit k set when it includes e_k.
func cellPolyhedron(origin mgl64.Vec3, e [3]mgl64.Vec3) Polyhedron {
	verts := make([]mgl64.Vec3, 8)
	centre := origin
	for k := range e {
		centre = centre.Add(e[k].Mul(0.5))
	}
	for i := range verts {
		v := origin
		for k := range e {
			if i&(1<<k) != 0 {
				v = v.Add(e[k])
			}
		}
		verts[i] = v
	}
	faces := make([]Face, 0, 6)
	for k := 0; k < 3; k++ {
		b, c := 1<<((k+1)%3), 1<<((k+2)%3)
		for _, side := range []int{0, 1 << k} {
			loop := []int{side, side | b, side | b | c, side | c}
			mid := verts[loop[0]].Add(verts[loop[2]]).Mul(0.5)
			loop = orient(verts, loop, mid.Sub(centre))
			faces = append(faces, Face{Plane: planeOf(verts, loop), Loop: loop})
		}
	}
	return Polyhedron{Vertices: verts, Faces: faces, Rho: 1.0}
}

// Parallelepiped is the cell spanned by V0, V1, V2 at Origin, e.g. a
// primitive cell of the reciprocal lattice.
type Parallelepiped struct {
	Origin     mgl64.Vec3
	V0, V1, V2 mgl64.Vec3
	Rho        float64
	// maps world coordinates to cell fractions
	mat mgl64.Mat3
}

// NewParallelepiped builds the cell spanned by v0, v1, v2 at origin.
func NewParallelepiped(origin, v0, v1, v2 mgl64.Vec3, eps float64) (*Parallelepiped, error) {
	if err := vecmat.CheckBasis(v0, v1, v2, eps); err != nil {
		return nil, err
	}
	p := &Parallelepiped{Origin: origin, V0: v0, V1: v1, V2: v2, Rho: 1.0}
	p.mat = vecmat.Columns(v0, v1, v2).Inv()
	return p, nil
}

func (p *Parallelepiped) String() string {
	return fmt.Sprintf("Parallelepiped{%v + [%v %v %v]}", p.Origin, p.V0, p.V1, p.V2)
}

func (p *Parallelepiped) ToMap() map[string]interface{} {
	vec := func(v mgl64.Vec3) []float64 { return []float64{v[0], v[1], v[2]} }
	return map[string]interface{}{
		"type":   "parallelepiped",
		"origin": vec(p.Origin),
		"v0":     vec(p.V0),
		"v1":     vec(p.V1),
		"v2":     vec(p.V2),
		"rho":    p.Rho,
	}
}

func (p *Parallelepiped) FromMap(data map[string]interface{}) error {
	fields := []struct {
		key string
		out *mgl64.Vec3
	}{{"origin", &p.Origin}, {"v0", &p.V0}, {"v1", &p.V1}, {"v2", &p.V2}}
	for _, f := range fields {
		if err := ToVec(data[f.key], f.out); err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
	}
	if err := vecmat.CheckBasis(p.V0, p.V1, p.V2, vecmat.DefaultEpsilon); err != nil {
		return err
	}
	p.mat = vecmat.Columns(p.V0, p.V1, p.V2).Inv()
	rho, err := readRho(data)
	p.Rho = rho
	return err
}

// Density is Rho when every cell fraction of (x,y,z) lies in [0,1].
func (p *Parallelepiped) Density(x, y, z float64) float64 {
	f := p.mat.Mul3x1(mgl64.Vec3{x, y, z}.Sub(p.Origin))
	for _, t := range f {
		if t < 0 || t > 1 {
			return 0.0
		}
	}
	return p.Rho
}

func (p *Parallelepiped) MinFeatureSize() float64 {
	return math.Min(p.V0.Len(), math.Min(p.V1.Len(), p.V2.Len()))
}

// Volume is |det3(v0,v1,v2)|.
func (p *Parallelepiped) Volume() float64 {
	return math.Abs(vecmat.Det3(p.V0, p.V1, p.V2))
}

func (p *Parallelepiped) ToPolyhedron() Polyhedron {
	poly := cellPolyhedron(p.Origin, [3]mgl64.Vec3{p.V0, p.V1, p.V2})
	poly.Rho = p.Rho
	return poly
}

// readRho returns data["rho"], 1 when absent.
func readRho(data map[string]interface{}) (float64, error) {
	v, ok := data["rho"]
	if !ok {
		return 1.0, nil
	}
	rho, err := ToFloat64(v)
	if err != nil {
		return 1.0, fmt.Errorf("rho: %w", err)
	}
	return rho, nil
}

func ToFloat64(data interface{}) (float64, error) {
	switch t := data.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	default:
		return 0.0, fmt.Errorf("data is not a float64")
	}
}

func ToInt(data interface{}) (int, error) {
	switch t := data.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int(t), nil
	default:
		return 0, fmt.Errorf("data is not an int")
	}
}

// ToVec converts a decoded yaml/json list, a []float64 or an mgl64.Vec3
// into vec.
func ToVec(data interface{}, vec *mgl64.Vec3) error {
	switch t := data.(type) {
	case mgl64.Vec3:
		*vec = t
		return nil
	case []float64:
		if len(t) != 3 {
			return fmt.Errorf("expected 3 components, got %d", len(t))
		}
		copy(vec[:], t)
		return nil
	case []interface{}:
		if len(t) != 3 {
			return fmt.Errorf("expected 3 components, got %d", len(t))
		}
		for i, val := range t {
			f, err := ToFloat64(val)
			if err != nil {
				return fmt.Errorf("component %d: %w", i, err)
			}
			vec[i] = f
		}
		return nil
	default:
		return fmt.Errorf("%v is not a Vec3", data)
	}
}

type ObjectFactory struct{}

func (of *ObjectFactory) Create(data map[string]interface{}) (Object, error) {
	return NewObject(data)
}

func NewObject(data map[string]interface{}) (Object, error) {
	var object Object
	switch data["type"] {
	case "box":
		object = &Box{}
	case "parallelepiped":
		object = &Parallelepiped{}
	case "polyhedron":
		object = &Polyhedron{}
	default:
		return nil, fmt.Errorf("unknown object type `%v`", data["type"])
	}
	if err := object.FromMap(data); err != nil {
		return nil, err
	}
	return object, nil
}
