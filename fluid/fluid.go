// Package fluid simulates an incompressible 2D fluid with two-way coupled
// circular solids.
//
// All numerical work runs as shader passes on a gpu.Engine. A Simulation
// owns five fields (velocity, dye and pressure double-buffered; divergence
// and curl single-buffered) and advances them with a fixed pass sequence:
// curl, vorticity confinement, divergence, pressure dissipation, Jacobi
// pressure solve, gradient subtraction, advection, then solid coupling.
//
// Host-facing coordinates are domain pixels with the origin at the
// bottom-left. Fields are sampled in normalised [0,1] coordinates.
package fluid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRenderSource is returned by Render when the configured render
	// source does not name a field.
	ErrUnknownRenderSource = errors.New("fluid: unknown render source")

	// ErrInvalidConfig is returned when the configuration cannot produce a
	// grid.
	ErrInvalidConfig = errors.New("fluid: invalid configuration")

	// ErrInvalidSolid is returned by Step when a solid has a negative or
	// NaN radius, a non-finite position or velocity, or picks up a
	// non-finite pressure force.
	ErrInvalidSolid = errors.New("fluid: invalid solid")
)

// FieldKind identifies one of the simulation fields.
type FieldKind uint8

const (
	FieldDye FieldKind = iota
	FieldVelocity
	FieldPressure
	FieldDivergence
	FieldCurl

	numFieldKinds
)

var fieldNames = [numFieldKinds]string{"dye", "velocity", "pressure", "divergence", "curl"}

func (k FieldKind) String() string {
	if k < numFieldKinds {
		return fieldNames[k]
	}
	return fmt.Sprintf("field(%d)", uint8(k))
}

// FieldKinds lists every field in render-source order.
func FieldKinds() []FieldKind {
	return []FieldKind{FieldDye, FieldVelocity, FieldPressure, FieldDivergence, FieldCurl}
}

// ParseFieldKind maps a render source name to its field.
func ParseFieldKind(name string) (FieldKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, fn := range fieldNames {
		if fn == n {
			return FieldKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRenderSource, name)
}

// Pass names reported to a Profiler.
const (
	PhaseResize      = "resize"
	PhaseCurl        = "curl"
	PhaseVorticity   = "vorticity"
	PhaseDivergence  = "divergence"
	PhaseDissipation = "pressure_dissipation"
	PhasePressure    = "pressure_solve"
	PhaseGradient    = "gradient_subtract"
	PhaseAdvection   = "advection"
	PhaseSolids      = "solids"
	PhaseRender      = "render"
)

// Phases lists every pass name in execution order.
func Phases() []string {
	return []string{
		PhaseResize, PhaseCurl, PhaseVorticity, PhaseDivergence, PhaseDissipation,
		PhasePressure, PhaseGradient, PhaseAdvection, PhaseSolids, PhaseRender,
	}
}

// Profiler receives the name of each pass as it starts.
type Profiler interface {
	StartPhase(phase string)
}
