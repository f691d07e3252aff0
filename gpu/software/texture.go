package software

import (
	"math"

	"github.com/x448/float16"

	"github.com/pthm-cable/plume/gpu"
)

// texture is a host-side render target. Every texel stores four channels;
// channels beyond the layout read as zero and alpha reads as one, matching
// how GL expands R and RG textures when sampled.
type texture struct {
	owner     *Engine
	w, h      int
	layout    gpu.Layout
	precision gpu.Precision
	filter    gpu.Filter
	data      []float32
	released  bool
}

func newTexture(owner *Engine, spec gpu.TargetSpec) *texture {
	t := &texture{
		owner:     owner,
		w:         spec.Width,
		h:         spec.Height,
		layout:    spec.Layout,
		precision: spec.Precision,
		filter:    spec.Filter,
	}
	t.data = t.blank()
	return t
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.data = nil
	if t.owner != nil {
		delete(t.owner.targets, t)
	}
}

// blank returns cleared storage for this texture's layout.
func (t *texture) blank() []float32 {
	data := make([]float32, t.w*t.h*4)
	if t.layout < gpu.RGBA {
		for i := 3; i < len(data); i += 4 {
			data[i] = 1
		}
	}
	return data
}

// store writes c into data at texel index i, honouring layout and precision.
func (t *texture) store(data []float32, i int, c [4]float32) {
	base := i * 4
	for ch := 0; ch < 4; ch++ {
		var v float32
		switch {
		case ch < int(t.layout):
			v = c[ch]
			if t.precision == gpu.PrecisionHalf {
				v = float16.Fromfloat32(v).Float32()
			}
		case ch == 3:
			v = 1
		}
		data[base+ch] = v
	}
}

func (t *texture) texel(data []float32, x, y int) [4]float32 {
	x = clampInt(x, 0, t.w-1)
	y = clampInt(y, 0, t.h-1)
	base := (y*t.w + x) * 4
	return [4]float32{data[base], data[base+1], data[base+2], data[base+3]}
}

// sampler captures the texture's current storage so a blit that writes the
// same texture it reads sees the pre-blit contents.
func (t *texture) sampler() gpu.Sampler {
	return &texSampler{tex: t, data: t.data}
}

type texSampler struct {
	tex  *texture
	data []float32
}

func (s *texSampler) Sample(u, v float32) [4]float32 {
	t := s.tex
	if t.filter == gpu.FilterNearest {
		x := int(math.Floor(float64(u) * float64(t.w)))
		y := int(math.Floor(float64(v) * float64(t.h)))
		return t.texel(s.data, x, y)
	}

	fx := u*float32(t.w) - 0.5
	fy := v*float32(t.h) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	ax := fx - float32(x0)
	ay := fy - float32(y0)

	c00 := t.texel(s.data, x0, y0)
	c10 := t.texel(s.data, x0+1, y0)
	c01 := t.texel(s.data, x0, y0+1)
	c11 := t.texel(s.data, x0+1, y0+1)

	var out [4]float32
	for i := range out {
		bottom := c00[i] + (c10[i]-c00[i])*ax
		top := c01[i] + (c11[i]-c01[i])*ax
		out[i] = bottom + (top-bottom)*ay
	}
	return out
}

// zeroSampler stands in for an unbound sampler uniform.
type zeroSampler struct{}

func (zeroSampler) Sample(u, v float32) [4]float32 { return [4]float32{} }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
