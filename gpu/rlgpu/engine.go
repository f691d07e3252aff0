// Package rlgpu implements gpu.Engine with raylib on OpenGL 3.3.
//
// Field targets are framebuffers with a 32-bit float RGBA colour attachment;
// the raylib binding exposes no 16-bit float pixel formats, so half
// precision requests are stored at full precision and quantised on read-back.
// Every blit draws a single quad with colour blending disabled, so fragments
// overwrite the destination exactly.
//
// All methods must be called from the goroutine that owns the raylib window,
// and blits to the screen only between rl.BeginDrawing and rl.EndDrawing.
package rlgpu

import (
	"fmt"
	"log/slog"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/x448/float16"

	"github.com/pthm-cable/plume/gpu"
)

// Engine is a raylib-backed shader engine.
type Engine struct {
	blank   rl.Texture2D
	screen  *screenTarget
	targets map[*target]struct{}
	closed  bool
}

// New creates an engine on the current raylib window. The window must
// already be initialised.
func New() *Engine {
	img := rl.GenImageColor(1, 1, rl.White)
	blank := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	e := &Engine{
		blank:   blank,
		targets: make(map[*target]struct{}),
	}
	e.screen = &screenTarget{}
	slog.Debug("raylib engine created", "screen_width", rl.GetScreenWidth(), "screen_height", rl.GetScreenHeight())
	return e
}

// Compile implements gpu.Engine.
func (e *Engine) Compile(name string, src gpu.Source) (gpu.Program, error) {
	shader := rl.LoadShaderFromMemory(src.Vertex, src.Fragment)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("%w: compiling program %q", gpu.ErrAllocation, name)
	}

	locs := make(map[string]int32, len(src.Uniforms))
	for _, u := range src.Uniforms {
		locs[u.Name] = rl.GetShaderLocation(shader, u.Name)
	}

	return &program{
		eng:    e,
		name:   name,
		src:    src,
		shader: shader,
		locs:   locs,
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

	img := rl.GenImageColor(spec.Width, spec.Height, rl.Blank)
	rl.ImageFormat(img, rl.UncompressedR32g32b32a32)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if tex.ID == 0 {
		return nil, fmt.Errorf("%w: %dx%d float texture", gpu.ErrAllocation, spec.Width, spec.Height)
	}

	if spec.Filter == gpu.FilterNearest {
		rl.SetTextureFilter(tex, rl.FilterPoint)
	} else {
		rl.SetTextureFilter(tex, rl.FilterBilinear)
	}
	rl.SetTextureWrap(tex, rl.WrapClamp)

	fbo := rl.LoadFramebuffer()
	rl.FramebufferAttach(fbo, tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadFramebuffer(fbo)
		rl.UnloadTexture(tex)
		return nil, fmt.Errorf("%w: incomplete framebuffer %dx%d", gpu.ErrAllocation, spec.Width, spec.Height)
	}

	t := &target{
		owner: e,
		spec:  spec,
		rt:    rl.RenderTexture2D{ID: fbo, Texture: tex},
	}
	e.targets[t] = struct{}{}
	return t, nil
}

// Screen implements gpu.Engine.
func (e *Engine) Screen() gpu.Target { return e.screen }

// ReadHalf implements gpu.Engine. The screen cannot be read back.
func (e *Engine) ReadHalf(t gpu.Target, channel, x, y, w, h int) ([]uint16, error) {
	tgt, ok := t.(*target)
	if !ok || tgt.owner != e {
		return nil, gpu.ErrForeignTarget
	}
	if tgt.released {
		return nil, gpu.ErrReleased
	}
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("rlgpu: channel %d out of range", channel)
	}
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	img := rl.LoadImageFromTexture(tgt.rt.Texture)
	defer rl.UnloadImage(img)

	tw, th := tgt.spec.Width, tgt.spec.Height
	// Rows come back in GL order, bottom first.
	texels := unsafe.Slice((*float32)(img.Data), tw*th*4)

	out := make([]uint16, 0, w*h)
	for j := 0; j < h; j++ {
		ty := clampInt(y+j, 0, th-1)
		for i := 0; i < w; i++ {
			tx := clampInt(x+i, 0, tw-1)
			out = append(out, float16.Fromfloat32(texels[(ty*tw+tx)*4+channel]).Bits())
		}
	}
	return out, nil
}

// Close releases every target and the blit texture.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	for t := range e.targets {
		t.Release()
	}
	rl.UnloadTexture(e.blank)
	e.closed = true
}

type target struct {
	owner    *Engine
	spec     gpu.TargetSpec
	rt       rl.RenderTexture2D
	released bool
}

func (t *target) Width() int  { return t.spec.Width }
func (t *target) Height() int { return t.spec.Height }

func (t *target) Release() {
	if t.released {
		return
	}
	t.released = true
	rl.UnloadFramebuffer(t.rt.ID)
	rl.UnloadTexture(t.rt.Texture)
	delete(t.owner.targets, t)
}

// screenTarget is the window back buffer.
type screenTarget struct{}

func (screenTarget) Width() int  { return rl.GetScreenWidth() }
func (screenTarget) Height() int { return rl.GetScreenHeight() }
func (screenTarget) Release()    {}

type program struct {
	eng      *Engine
	name     string
	src      gpu.Source
	shader   rl.Shader
	locs     map[string]int32
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
			t, ok := tex.Target.(*target)
			if !ok || t.owner != p.eng {
				return fmt.Errorf("program %q uniform %q: %w", p.name, name, gpu.ErrForeignTarget)
			}
		}
		p.values[name] = v
	}
	return nil
}

func (p *program) Blit(dst gpu.Target, vp gpu.Viewport) error {
	if p.released {
		return fmt.Errorf("%w: program %q", gpu.ErrReleased, p.name)
	}

	var fbo *target
	switch t := dst.(type) {
	case *screenTarget:
	case *target:
		if t.owner != p.eng {
			return fmt.Errorf("program %q: %w", p.name, gpu.ErrForeignTarget)
		}
		if t.released {
			return fmt.Errorf("program %q: %w", p.name, gpu.ErrReleased)
		}
		fbo = t
	default:
		return fmt.Errorf("program %q: %w", p.name, gpu.ErrForeignTarget)
	}

	tw, th := dst.Width(), dst.Height()
	vp = vp.Resolve(tw, th)

	if fbo != nil {
		rl.BeginTextureMode(fbo.rt)
	}
	rl.BeginShaderMode(p.shader)
	if err := p.bind(); err != nil {
		rl.EndShaderMode()
		if fbo != nil {
			rl.EndTextureMode()
		}
		return err
	}

	rl.DisableColorBlend()
	// raylib's 2D projection has y pointing down; a negative source height
	// puts v=0 on the bottom edge of the quad.
	rl.DrawTexturePro(
		p.eng.blank,
		rl.Rectangle{X: 0, Y: 0, Width: 1, Height: -1},
		rl.Rectangle{
			X:      float32(vp.X),
			Y:      float32(th - vp.Y - vp.Height),
			Width:  float32(vp.Width),
			Height: float32(vp.Height),
		},
		rl.Vector2{},
		0,
		rl.White,
	)
	rl.EndShaderMode()
	rl.EnableColorBlend()

	if fbo != nil {
		rl.EndTextureMode()
	}
	return nil
}

// bind uploads every stored uniform. Sampler slots are only valid for the
// next draw, so this runs inside each blit.
func (p *program) bind() error {
	for name, v := range p.values {
		loc := p.locs[name]
		if loc < 0 {
			// Declared but optimised out of the GLSL.
			continue
		}
		switch val := v.(type) {
		case gpu.Float:
			rl.SetShaderValue(p.shader, loc, []float32{float32(val)}, rl.ShaderUniformFloat)
		case gpu.Vec2:
			rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec2)
		case gpu.Vec3:
			rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec3)
		case gpu.Vec4:
			rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec4)
		case gpu.Mat2:
			// GLSL side declares a vec4 and rebuilds mat2(m.xy, m.zw).
			rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec4)
		case gpu.Mat4:
			rl.SetShaderValueMatrix(p.shader, loc, toMatrix(val))
		case gpu.Texture:
			t := val.Target.(*target)
			if t.released {
				return fmt.Errorf("program %q uniform %q: %w", p.name, name, gpu.ErrReleased)
			}
			rl.SetShaderValueTexture(p.shader, loc, t.rt.Texture)
		}
	}
	return nil
}

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	rl.UnloadShader(p.shader)
	p.values = nil
}

// toMatrix converts column-major storage to raylib's matrix layout.
func toMatrix(m gpu.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
