package fluid

import (
	"math"

	"github.com/pthm-cable/plume/gpu"
)

// Host-side renditions of shaders/*.frag, evaluated by engines without a GPU.
// Each must produce the same fragment as its GLSL counterpart.

func copyKernel(b gpu.Bindings) gpu.Shade {
	src := b.Sampler("uSource")
	scale := b.Vec4("scale")
	return func(u, v float32) [4]float32 {
		c := src.Sample(u, v)
		return [4]float32{c[0] * scale[0], c[1] * scale[1], c[2] * scale[2], c[3] * scale[3]}
	}
}

func splatKernel(b gpu.Bindings) gpu.Shade {
	target := b.Sampler("uTarget")
	point := b.Vec2("point")
	color := b.Vec3("color")
	m := b.Mat2("ellipse")
	return func(u, v float32) [4]float32 {
		px, py := applyMat2(m, u-point[0], v-point[1])
		g := float32(math.Exp(-float64(px*px + py*py)))
		base := target.Sample(u, v)
		return [4]float32{base[0] + g*color[0], base[1] + g*color[1], base[2] + g*color[2], 1}
	}
}

func circleKernel(b gpu.Bindings) gpu.Shade {
	target := b.Sampler("uTarget")
	point := b.Vec2("point")
	value := b.Vec3("value")
	m := b.Mat2("ellipse")
	return func(u, v float32) [4]float32 {
		px, py := applyMat2(m, u-point[0], v-point[1])
		if px*px+py*py <= 1 {
			return [4]float32{value[0], value[1], value[2], 1}
		}
		base := target.Sample(u, v)
		return [4]float32{base[0], base[1], base[2], 1}
	}
}

func curlKernel(b gpu.Bindings) gpu.Shade {
	vel := b.Sampler("uVelocity")
	ts := b.Vec2("texelSize")
	return func(u, v float32) [4]float32 {
		l := vel.Sample(u-ts[0], v)[1]
		r := vel.Sample(u+ts[0], v)[1]
		t := vel.Sample(u, v+ts[1])[0]
		bt := vel.Sample(u, v-ts[1])[0]
		return [4]float32{0.5 * (r - l - t + bt), 0, 0, 1}
	}
}

func vorticityKernel(b gpu.Bindings) gpu.Shade {
	vel := b.Sampler("uVelocity")
	curl := b.Sampler("uCurl")
	ts := b.Vec2("texelSize")
	strength := b.Float("curl")
	dt := b.Float("dt")
	return func(u, v float32) [4]float32 {
		l := curl.Sample(u-ts[0], v)[0]
		r := curl.Sample(u+ts[0], v)[0]
		t := curl.Sample(u, v+ts[1])[0]
		bt := curl.Sample(u, v-ts[1])[0]
		c := curl.Sample(u, v)[0]

		fx := 0.5 * (abs32(t) - abs32(bt))
		fy := 0.5 * (abs32(r) - abs32(l))
		n := float32(math.Sqrt(float64(fx*fx+fy*fy))) + 0.0001
		fx = fx / n * strength * c
		fy = -fy / n * strength * c

		w := vel.Sample(u, v)
		return [4]float32{w[0] + fx*dt, w[1] + fy*dt, 0, 1}
	}
}

func divergenceKernel(b gpu.Bindings) gpu.Shade {
	vel := b.Sampler("uVelocity")
	ts := b.Vec2("texelSize")
	return func(u, v float32) [4]float32 {
		l := vel.Sample(u-ts[0], v)[0]
		r := vel.Sample(u+ts[0], v)[0]
		t := vel.Sample(u, v+ts[1])[1]
		bt := vel.Sample(u, v-ts[1])[1]

		c := vel.Sample(u, v)
		if u-ts[0] < 0 {
			l = -c[0]
		}
		if u+ts[0] > 1 {
			r = -c[0]
		}
		if v+ts[1] > 1 {
			t = -c[1]
		}
		if v-ts[1] < 0 {
			bt = -c[1]
		}
		return [4]float32{0.5 * (r - l + t - bt), 0, 0, 1}
	}
}

func pressureKernel(b gpu.Bindings) gpu.Shade {
	p := b.Sampler("uPressure")
	div := b.Sampler("uDivergence")
	ts := b.Vec2("texelSize")
	return func(u, v float32) [4]float32 {
		l := p.Sample(u-ts[0], v)[0]
		r := p.Sample(u+ts[0], v)[0]
		t := p.Sample(u, v+ts[1])[0]
		bt := p.Sample(u, v-ts[1])[0]
		d := div.Sample(u, v)[0]
		return [4]float32{(l + r + bt + t - d) * 0.25, 0, 0, 1}
	}
}

func gradientKernel(b gpu.Bindings) gpu.Shade {
	p := b.Sampler("uPressure")
	vel := b.Sampler("uVelocity")
	ts := b.Vec2("texelSize")
	return func(u, v float32) [4]float32 {
		l := p.Sample(u-ts[0], v)[0]
		r := p.Sample(u+ts[0], v)[0]
		t := p.Sample(u, v+ts[1])[0]
		bt := p.Sample(u, v-ts[1])[0]
		w := vel.Sample(u, v)
		return [4]float32{w[0] - 0.5*(r-l), w[1] - 0.5*(t-bt), 0, 1}
	}
}

func advectionKernel(b gpu.Bindings) gpu.Shade {
	vel := b.Sampler("uVelocity")
	src := b.Sampler("uSource")
	ts := b.Vec2("texelSize")
	dt := b.Float("dt")
	decay := max(1-b.Float("dissipation")*dt, 0)
	return func(u, v float32) [4]float32 {
		w := vel.Sample(u, v)
		c := src.Sample(u-dt*w[0]*ts[0], v-dt*w[1]*ts[1])
		return [4]float32{decay * c[0], decay * c[1], decay * c[2], 1}
	}
}

func displayKernel(b gpu.Bindings) gpu.Shade {
	src := b.Sampler("uSource")
	m := b.Mat4("transform")
	return func(u, v float32) [4]float32 {
		c := src.Sample(u, v)
		var out [4]float32
		for r := 0; r < 4; r++ {
			out[r] = m[r]*c[0] + m[4+r]*c[1] + m[8+r]*c[2] + m[12+r]*c[3]
		}
		return out
	}
}

// applyMat2 multiplies a column-major 2×2 matrix by (x, y).
func applyMat2(m [4]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[2]*y, m[1]*x + m[3]*y
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
