package systems

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/plume/components"
	"github.com/pthm-cable/plume/config"
)

// EmitterSystem splats every live emitter into the fluid and expires
// emitters whose lifetime has run out.
type EmitterSystem struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Velocity, components.Emitter, components.Lifetime]
	filter *ecs.Filter4[components.Position, components.Velocity, components.Emitter, components.Lifetime]

	// Bounds wraps drifting emitters. Zero disables wrapping.
	Bounds Bounds

	noise   *perlin.Perlin
	elapsed float64
}

// swayRate is how fast emitters move along their noise curve, in lattice
// cells per second.
const swayRate = 0.7

// NewEmitterSystem creates an emitter system on w.
func NewEmitterSystem(w *ecs.World) *EmitterSystem {
	return &EmitterSystem{
		world:  w,
		mapper: ecs.NewMap4[components.Position, components.Velocity, components.Emitter, components.Lifetime](w),
		filter: ecs.NewFilter4[components.Position, components.Velocity, components.Emitter, components.Lifetime](w),
		noise:  perlin.NewPerlin(2, 2, 3, 1),
	}
}

// Spawn adds an emitter entity.
func (s *EmitterSystem) Spawn(pos components.Position, vel components.Velocity, em components.Emitter, life components.Lifetime) ecs.Entity {
	return s.mapper.NewEntity(&pos, &vel, &em, &life)
}

// SpawnFromConfig adds one emitter per config entry. A negative hue cycles.
func (s *EmitterSystem) SpawnFromConfig(cfgs []config.EmitterConfig, hueSpeed, value float64) {
	for i, ec := range cfgs {
		em := components.Emitter{
			Angle: ec.Angle,
			Major: ec.Major,
			Minor: ec.Minor,
			DX:    ec.DX,
			DY:    ec.DY,
			Hue:   ec.Hue,
			Value: value,
			Sway:  ec.Sway,
		}
		em.SwayPhase = 17.3 * float64(i+1)
		if ec.Hue < 0 {
			em.Hue = 0
			em.Cycle = true
			em.HueSpeed = hueSpeed
		}
		life := components.Lifetime{Remaining: ec.Lifetime, Forever: ec.Lifetime <= 0}
		s.Spawn(components.Position{X: ec.X, Y: ec.Y}, components.Velocity{}, em, life)
	}
}

// Count returns the number of live emitters.
func (s *EmitterSystem) Count() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Update splats every emitter, advances hue, position and lifetime by dt
// and removes expired emitters. It returns the number of splats issued.
func (s *EmitterSystem) Update(sp Splatter, dt float64) (int, error) {
	var expired []ecs.Entity
	splats := 0

	query := s.filter.Query()
	for query.Next() {
		pos, vel, em, life := query.Get()

		angle, dx, dy := s.heading(em)
		if err := sp.SetVelocity(pos.X, pos.Y, angle, em.Major, em.Minor, dx, dy); err != nil {
			query.Close()
			return splats, fmt.Errorf("emitter velocity: %w", err)
		}
		color := DyeColor(em.Hue, em.Value)
		// Dye injected per tick scales with dt so the density does not
		// depend on frame rate.
		for i := range color {
			color[i] *= dt * 60
		}
		if err := sp.SetDye(pos.X, pos.Y, angle, em.Major, em.Minor, color); err != nil {
			query.Close()
			return splats, fmt.Errorf("emitter dye: %w", err)
		}
		splats++

		if em.Cycle {
			em.Hue = math.Mod(em.Hue+360*em.HueSpeed*dt, 360)
		}
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		if s.Bounds.Width > 0 && s.Bounds.Height > 0 {
			pos.X = wrap(pos.X, s.Bounds.Width)
			pos.Y = wrap(pos.Y, s.Bounds.Height)
		}

		if !life.Forever {
			life.Remaining -= dt
			if life.Remaining <= 0 {
				expired = append(expired, query.Entity())
			}
		}
	}

	// Remove after the query has finished iterating.
	for _, e := range expired {
		s.world.RemoveEntity(e)
	}
	s.elapsed += dt
	return splats, nil
}

// heading returns the ellipse angle and jet velocity after sway.
func (s *EmitterSystem) heading(em *components.Emitter) (angle, dx, dy float64) {
	if em.Sway == 0 {
		return em.Angle, em.DX, em.DY
	}
	turn := em.Sway * s.noise.Noise2D(s.elapsed*swayRate, em.SwayPhase)
	sin, cos := math.Sincos(turn)
	// Splat angles turn the ellipse clockwise in domain space.
	return em.Angle - turn, em.DX*cos - em.DY*sin, em.DX*sin + em.DY*cos
}

func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}
