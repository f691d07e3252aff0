package components

// Position is an emitter's location in domain pixels.
type Position struct {
	X, Y float64
}

// Velocity moves an emitter across the domain, in pixels per second.
type Velocity struct {
	X, Y float64
}

// Emitter injects an elliptical dye and velocity splat every tick.
type Emitter struct {
	Angle        float64 // Ellipse rotation in radians
	Major, Minor float64 // Semi-axes in pixels
	DX, DY       float64 // Injected velocity in pixels per second

	// Hue in degrees. When Cycle is set the hue advances by HueSpeed
	// revolutions per second.
	Hue      float64
	Cycle    bool
	HueSpeed float64
	Value    float64 // HSV value of the dye colour

	// Sway scales a Perlin noise curve that turns the jet, in radians.
	// SwayPhase separates the curves of different emitters.
	Sway      float64
	SwayPhase float64
}

// Lifetime removes an entity once Remaining reaches zero.
type Lifetime struct {
	Remaining float64
	Forever   bool
}
