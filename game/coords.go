package game

// drag is a pointer movement captured by input handling and consumed by the
// next pre-render hook.
type drag struct {
	active bool
	x, y   float64
	dx, dy float64
}

// screenToDomain converts a raylib window position (y down) to domain
// pixels (y up from the domain's bottom-left corner).
func screenToDomain(sx, sy float64, screenH, left, bottom int) (float64, float64) {
	return sx - float64(left), float64(screenH) - sy - float64(bottom)
}

// domainToScreen is the inverse of screenToDomain.
func domainToScreen(x, y float64, screenH, left, bottom int) (float64, float64) {
	return x + float64(left), float64(screenH) - y - float64(bottom)
}
