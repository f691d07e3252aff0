// Package gpu defines the contract between the fluid core and a shader
// execution engine: programs compiled from a vertex/fragment source pair,
// render targets, named uniform parameters and full-target blits.
//
// Two engines implement it: gpu/rlgpu drives OpenGL through raylib, and
// gpu/software evaluates the host-side kernel attached to each Source on the
// CPU so the simulation can run headless.
package gpu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownUniform is returned by Program.Use when a parameter name is
	// not declared by the program.
	ErrUnknownUniform = errors.New("gpu: unknown uniform")

	// ErrUniformArity is returned by Program.Use when a parameter value does
	// not match the declared uniform type.
	ErrUniformArity = errors.New("gpu: uniform arity mismatch")

	// ErrAllocation wraps target and program allocation failures.
	ErrAllocation = errors.New("gpu: allocation failed")

	// ErrForeignTarget is returned when a target created by one engine is
	// handed to another.
	ErrForeignTarget = errors.New("gpu: target belongs to another engine")

	// ErrReleased is returned when a released target or program is used.
	ErrReleased = errors.New("gpu: resource already released")
)

// Layout is the number of channels stored per texel.
type Layout int

const (
	R    Layout = 1
	RG   Layout = 2
	RGBA Layout = 4
)

// Precision selects the storage type of a target.
type Precision uint8

const (
	PrecisionHalf  Precision = iota // 16-bit float
	PrecisionFloat                  // 32-bit float
)

// Filter selects how a target is sampled between texel centres.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// TargetSpec describes storage to allocate.
type TargetSpec struct {
	Width, Height int
	Layout        Layout
	Precision     Precision
	Filter        Filter
}

// Validate reports whether the spec can be allocated.
func (s TargetSpec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, s.Width, s.Height)
	}
	switch s.Layout {
	case R, RG, RGBA:
	default:
		return fmt.Errorf("%w: unsupported layout %d", ErrAllocation, s.Layout)
	}
	return nil
}

// Target is a render target: a field buffer or the screen.
type Target interface {
	Width() int
	Height() int
	Release()
}

// Viewport is a destination rectangle in target pixels with the origin at
// the bottom-left. The zero Viewport covers the whole target.
type Viewport struct {
	X, Y, Width, Height int
}

// Resolve returns v, or the whole w×h target when v is empty.
func (v Viewport) Resolve(w, h int) Viewport {
	if v.Width <= 0 || v.Height <= 0 {
		return Viewport{Width: w, Height: h}
	}
	return v
}

// Engine compiles programs, owns targets and reads pixels back.
type Engine interface {
	// Compile builds the named program once. Sources are immutable after
	// compilation.
	Compile(name string, src Source) (Program, error)

	// NewTarget allocates an off-screen target.
	NewTarget(spec TargetSpec) (Target, error)

	// Screen is the presentation target.
	Screen() Target

	// ReadHalf reads one channel of a w×h window starting at (x, y) and
	// returns half-float bit patterns, bottom row first. This stalls until
	// every pass writing t has completed.
	ReadHalf(t Target, channel, x, y, w, h int) ([]uint16, error)

	// Close releases every resource the engine still owns.
	Close()
}

// Program is a compiled shader pair.
type Program interface {
	Name() string

	// Use binds uniform values by name. Values persist until overwritten.
	Use(params Params) error

	// Blit draws a full-target quad into vp of target with the bound
	// uniforms.
	Blit(target Target, vp Viewport) error

	Release()
}
