package fluid

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/plume/gpu"
)

// ToNormalized converts domain pixels to normalised field coordinates.
func ToNormalized(x, y, width, height float64) (float64, float64) {
	return x / width, y / height
}

// EllipseTransform returns the 2×2 matrix that maps a normalised offset from
// an ellipse centre into the space where the ellipse is the unit circle.
// angle is the screen-space rotation of the major axis in radians; the
// field-space rotation is its negative because pixel rows and texture rows
// run in opposite directions.
func EllipseTransform(angle, major, minor, width, height float64) *mat.Dense {
	toPixels := mat.NewDense(2, 2, []float64{
		width, 0,
		0, height,
	})
	// Rotating by the negated field angle aligns the major axis with x.
	sin, cos := math.Sincos(angle)
	rot := mat.NewDense(2, 2, []float64{
		cos, -sin,
		sin, cos,
	})
	toUnit := mat.NewDense(2, 2, []float64{
		1 / major, 0,
		0, 1 / minor,
	})

	var m mat.Dense
	m.Product(toUnit, rot, toPixels)
	return &m
}

// Visualisation kinds in the default table.
const (
	visualIdentity = iota // directly visible fields
	visualScalar          // signed scalars: positive red, negative green
)

var defaultVisuals = [numFieldKinds]int{
	FieldDye:        visualIdentity,
	FieldVelocity:   visualIdentity,
	FieldPressure:   visualScalar,
	FieldDivergence: visualScalar,
	FieldCurl:       visualScalar,
}

// DefaultVisualization returns the default render matrix for k scaled by s.
func DefaultVisualization(k FieldKind, s float64) *mat.Dense {
	if k >= numFieldKinds || defaultVisuals[k] == visualIdentity {
		return mat.NewDense(4, 4, []float64{
			s, 0, 0, 0,
			0, s, 0, 0,
			0, 0, s, 0,
			0, 0, 0, 1,
		})
	}
	return mat.NewDense(4, 4, []float64{
		s, 0, 0, 0,
		-s, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 1,
	})
}

// mat2 converts a 2×2 matrix to column-major uniform storage.
func mat2(m mat.Matrix) gpu.Mat2 {
	return gpu.Mat2{
		float32(m.At(0, 0)), float32(m.At(1, 0)),
		float32(m.At(0, 1)), float32(m.At(1, 1)),
	}
}

// mat4 converts a 4×4 matrix to column-major uniform storage.
func mat4(m mat.Matrix) gpu.Mat4 {
	var out gpu.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = float32(m.At(r, c))
		}
	}
	return out
}
