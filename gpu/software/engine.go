// Package software implements gpu.Engine on the CPU. Each program runs the
// host-side Kernel of its gpu.Source once per destination texel; large blits
// are split by rows across a persistent worker pool and joined before Blit
// returns.
package software

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"maps"

	"github.com/x448/float16"

	"github.com/pthm-cable/plume/gpu"
)

// Engine is a CPU shader engine. It is not safe for concurrent use.
type Engine struct {
	screen  *texture
	targets map[*texture]struct{}
	pool    *pool
	closed  bool
}

// New creates an engine whose screen is a screenW×screenH float RGBA target.
func New(screenW, screenH int) *Engine {
	e := &Engine{
		targets: make(map[*texture]struct{}),
		pool:    newPool(0),
	}
	e.screen = newTexture(nil, gpu.TargetSpec{
		Width: screenW, Height: screenH,
		Layout: gpu.RGBA, Precision: gpu.PrecisionFloat, Filter: gpu.FilterLinear,
	})
	slog.Debug("software engine created", "width", screenW, "height", screenH, "workers", e.pool.numWorkers)
	return e
}

// ResizeScreen reallocates the screen target, clearing it.
func (e *Engine) ResizeScreen(w, h int) {
	if w == e.screen.w && h == e.screen.h {
		return
	}
	e.screen.w, e.screen.h = w, h
	e.screen.data = e.screen.blank()
}

// Compile implements gpu.Engine.
func (e *Engine) Compile(name string, src gpu.Source) (gpu.Program, error) {
	if src.Kernel == nil {
		return nil, fmt.Errorf("%w: program %q has no host kernel", gpu.ErrAllocation, name)
	}
	return &program{
		eng:    e,
		name:   name,
		src:    src,
		values: make(gpu.Params, len(src.Uniforms)),
	}, nil
}

// NewTarget implements gpu.Engine.
func (e *Engine) NewTarget(spec gpu.TargetSpec) (gpu.Target, error) {
	if e.closed {
		return nil, fmt.Errorf("%w: engine closed", gpu.ErrAllocation)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	t := newTexture(e, spec)
	e.targets[t] = struct{}{}
	return t, nil
}

// Screen implements gpu.Engine.
func (e *Engine) Screen() gpu.Target { return e.screen }

// ReadHalf implements gpu.Engine. Coordinates outside the target are
// clamped to the nearest edge texel.
func (e *Engine) ReadHalf(t gpu.Target, channel, x, y, w, h int) ([]uint16, error) {
	tex, err := e.resolve(t)
	if err != nil {
		return nil, err
	}
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("software: channel %d out of range", channel)
	}
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	out := make([]uint16, 0, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			c := tex.texel(tex.data, x+i, y+j)
			out = append(out, float16.Fromfloat32(c[channel]).Bits())
		}
	}
	return out, nil
}

// Close stops the worker pool and releases every target.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.pool.stop()
	for t := range e.targets {
		t.Release()
	}
	e.closed = true
}

// ScreenImage returns the screen contents as 8-bit RGBA with the top row
// first, ready for image encoders.
func (e *Engine) ScreenImage() *image.RGBA {
	s := e.screen
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			c := s.texel(s.data, x, y)
			img.SetRGBA(x, s.h-1-y, color.RGBA{
				R: toByte(c[0]), G: toByte(c[1]), B: toByte(c[2]), A: toByte(c[3]),
			})
		}
	}
	return img
}

// ScreenPixels returns a copy of the raw float screen storage, four channels
// per texel, bottom row first.
func (e *Engine) ScreenPixels() []float32 {
	out := make([]float32, len(e.screen.data))
	copy(out, e.screen.data)
	return out
}

func (e *Engine) resolve(t gpu.Target) (*texture, error) {
	tex, ok := t.(*texture)
	if !ok || (tex != e.screen && tex.owner != e) {
		return nil, gpu.ErrForeignTarget
	}
	if tex.released {
		return nil, gpu.ErrReleased
	}
	return tex, nil
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

type program struct {
	eng      *Engine
	name     string
	src      gpu.Source
	values   gpu.Params
	released bool
}

func (p *program) Name() string { return p.name }

func (p *program) Use(params gpu.Params) error {
	if p.released {
		return fmt.Errorf("%w: program %q", gpu.ErrReleased, p.name)
	}
	if err := p.src.Check(p.name, params); err != nil {
		return err
	}
	for name, v := range params {
		if tex, ok := v.(gpu.Texture); ok {
			if _, err := p.eng.resolve(tex.Target); err != nil {
				return fmt.Errorf("program %q uniform %q: %w", p.name, name, err)
			}
		}
	}
	maps.Copy(p.values, params)
	return nil
}

func (p *program) Blit(target gpu.Target, vp gpu.Viewport) error {
	if p.released {
		return fmt.Errorf("%w: program %q", gpu.ErrReleased, p.name)
	}
	dst, err := p.eng.resolve(target)
	if err != nil {
		return fmt.Errorf("program %q: %w", p.name, err)
	}
	vp = vp.Resolve(dst.w, dst.h)

	shade := p.src.Kernel(&bindings{eng: p.eng, values: p.values})

	x0 := clampInt(vp.X, 0, dst.w)
	x1 := clampInt(vp.X+vp.Width, 0, dst.w)
	y0 := clampInt(vp.Y, 0, dst.h)
	y1 := clampInt(vp.Y+vp.Height, 0, dst.h)

	out := make([]float32, len(dst.data))
	copy(out, dst.data)

	invW := 1 / float32(vp.Width)
	invH := 1 / float32(vp.Height)
	rows := y1 - y0
	p.eng.pool.run(rows, rows*(x1-x0), func(start, end int) {
		for y := y0 + start; y < y0+end; y++ {
			v := (float32(y-vp.Y) + 0.5) * invH
			for x := x0; x < x1; x++ {
				u := (float32(x-vp.X) + 0.5) * invW
				dst.store(out, y*dst.w+x, shade(u, v))
			}
		}
	})

	dst.data = out
	return nil
}

func (p *program) Release() {
	p.released = true
	p.values = nil
}

// bindings resolves uniform values for a kernel. Missing or released
// textures read as zero.
type bindings struct {
	eng    *Engine
	values gpu.Params
}

func (b *bindings) Float(name string) float32 {
	v, _ := b.values[name].(gpu.Float)
	return float32(v)
}

func (b *bindings) Vec2(name string) [2]float32 {
	v, _ := b.values[name].(gpu.Vec2)
	return v
}

func (b *bindings) Vec3(name string) [3]float32 {
	v, _ := b.values[name].(gpu.Vec3)
	return v
}

func (b *bindings) Vec4(name string) [4]float32 {
	v, _ := b.values[name].(gpu.Vec4)
	return v
}

func (b *bindings) Mat2(name string) [4]float32 {
	v, _ := b.values[name].(gpu.Mat2)
	return v
}

func (b *bindings) Mat4(name string) [16]float32 {
	v, _ := b.values[name].(gpu.Mat4)
	return v
}

func (b *bindings) Sampler(name string) gpu.Sampler {
	v, ok := b.values[name].(gpu.Texture)
	if !ok {
		return zeroSampler{}
	}
	tex, err := b.eng.resolve(v.Target)
	if err != nil {
		return zeroSampler{}
	}
	return tex.sampler()
}
