package vecmat

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultEpsilon is the tolerance used for comparisons against zero when
// no tolerance is configured.
const DefaultEpsilon = 1e-6

var ErrDegenerateBasis = errors.New("vecmat: basis vectors are coplanar or linearly dependent")

func Dot(u, v mgl64.Vec3) float64 {
	return u.Dot(v)
}

func Cross(u, v mgl64.Vec3) mgl64.Vec3 {
	return u.Cross(v)
}

// Det3 is the scalar triple product u·(v×w), i.e. the signed volume of the
// parallelepiped spanned by the three vectors.
func Det3(u, v, w mgl64.Vec3) float64 {
	return u.Dot(v.Cross(w))
}

// Columns builds the matrix whose columns are u, v and w.
func Columns(u, v, w mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(u, v, w)
}

// CheckBasis fails with ErrDegenerateBasis when |det3(u,v,w)| < eps.
// The test is absolute: eps is a volume, in the units of the vectors cubed.
func CheckBasis(u, v, w mgl64.Vec3, eps float64) error {
	if !finite(u) || !finite(v) || !finite(w) {
		return fmt.Errorf("%w: non-finite component", ErrDegenerateBasis)
	}
	if det := Det3(u, v, w); math.Abs(det) < eps {
		return fmt.Errorf("%w: |det| %g below tolerance %g", ErrDegenerateBasis, math.Abs(det), eps)
	}
	return nil
}

// InverseTranspose returns (M^-1)^T. For a matrix of basis columns the
// result holds the dual basis in its columns.
func InverseTranspose(m mgl64.Mat3, eps float64) (mgl64.Mat3, error) {
	c0, c1, c2 := m.Col(0), m.Col(1), m.Col(2)
	if err := CheckBasis(c0, c1, c2, eps); err != nil {
		return mgl64.Mat3{}, err
	}
	return m.Inv().Transpose(), nil
}

// Normalize returns the unit vector along v and its length. The zero
// vector is returned unchanged.
func Normalize(v mgl64.Vec3) (mgl64.Vec3, float64) {
	l := v.Len()
	if l == 0 {
		return v, 0
	}
	return v.Mul(1 / l), l
}

// ApproxEqual reports whether |u-v| <= eps. The comparison is absolute,
// unlike mgl64's ApproxEqualThreshold which is relative away from zero.
func ApproxEqual(u, v mgl64.Vec3, eps float64) bool {
	return u.Sub(v).Len() <= eps
}

// NearZero reports whether |x| <= eps.
func NearZero(x, eps float64) bool {
	return math.Abs(x) <= eps
}

func finite(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
