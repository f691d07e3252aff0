package systems

import "github.com/pthm-cable/plume/fluid"

// Bounds is the domain rectangle in pixels.
type Bounds struct {
	Width, Height float64
}

// Confine keeps every solid fully inside b, reflecting the velocity
// component normal to a wall scaled by restitution. It returns the number
// of wall contacts.
func (b Bounds) Confine(solids []*fluid.Solid, restitution float64) int {
	contacts := 0
	for _, s := range solids {
		if s == nil {
			continue
		}
		r := s.Radius
		if s.Position.X < r {
			s.Position.X = r
			if s.Velocity.X < 0 {
				s.Velocity.X = -s.Velocity.X * restitution
			}
			contacts++
		} else if s.Position.X > b.Width-r {
			s.Position.X = b.Width - r
			if s.Velocity.X > 0 {
				s.Velocity.X = -s.Velocity.X * restitution
			}
			contacts++
		}
		if s.Position.Y < r {
			s.Position.Y = r
			if s.Velocity.Y < 0 {
				s.Velocity.Y = -s.Velocity.Y * restitution
			}
			contacts++
		} else if s.Position.Y > b.Height-r {
			s.Position.Y = b.Height - r
			if s.Velocity.Y > 0 {
				s.Velocity.Y = -s.Velocity.Y * restitution
			}
			contacts++
		}
	}
	return contacts
}
