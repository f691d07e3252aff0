// Package systems holds the demo-side behaviour that drives a fluid
// simulation: emitters, pointer splats and solid containment.
package systems

// Splatter injects velocity and dye. *fluid.Simulation satisfies it.
type Splatter interface {
	SetVelocity(x, y, angle, major, minor, dx, dy float64) error
	SetDye(x, y, angle, major, minor float64, color [3]float64) error
}
