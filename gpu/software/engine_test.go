package software

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/plume/gpu"
)

var fillSource = gpu.Source{
	Uniforms: []gpu.Uniform{{Name: "color", Kind: gpu.KindVec4}},
	Kernel: func(b gpu.Bindings) gpu.Shade {
		c := b.Vec4("color")
		return func(u, v float32) [4]float32 { return c }
	},
}

// gradientSource writes u into R and v into G.
var gradientSource = gpu.Source{
	Kernel: func(b gpu.Bindings) gpu.Shade {
		return func(u, v float32) [4]float32 { return [4]float32{u, v, 0, 1} }
	},
}

var shiftSource = gpu.Source{
	Uniforms: []gpu.Uniform{
		{Name: "uSource", Kind: gpu.KindSampler},
		{Name: "offset", Kind: gpu.KindVec2},
	},
	Kernel: func(b gpu.Bindings) gpu.Shade {
		src := b.Sampler("uSource")
		off := b.Vec2("offset")
		return func(u, v float32) [4]float32 { return src.Sample(u+off[0], v+off[1]) }
	},
}

func newTarget(t *testing.T, e *Engine, spec gpu.TargetSpec) gpu.Target {
	t.Helper()
	tgt, err := e.NewTarget(spec)
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	return tgt
}

func compile(t *testing.T, e *Engine, name string, src gpu.Source) gpu.Program {
	t.Helper()
	p, err := e.Compile(name, src)
	if err != nil {
		t.Fatalf("Compile(%s): %v", name, err)
	}
	return p
}

func readChannel(t *testing.T, e *Engine, tgt gpu.Target, ch int) []float64 {
	t.Helper()
	raw, err := e.ReadHalf(tgt, ch, 0, 0, tgt.Width(), tgt.Height())
	if err != nil {
		t.Fatalf("ReadHalf: %v", err)
	}
	return gpu.DecodeHalfFloats(raw)
}

func TestFillRespectsLayout(t *testing.T) {
	e := New(8, 8)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 4, Height: 4, Layout: gpu.RG})
	fill := compile(t, e, "fill", fillSource)

	if err := fill.Use(gpu.Params{"color": gpu.Vec4{0.5, -2, 7, 3}}); err != nil {
		t.Fatalf("Use: %v", err)
	}
	if err := fill.Blit(tgt, gpu.Viewport{}); err != nil {
		t.Fatalf("Blit: %v", err)
	}

	want := []float64{0.5, -2, 0, 1}
	for ch, w := range want {
		for i, v := range readChannel(t, e, tgt, ch) {
			if v != w {
				t.Fatalf("channel %d texel %d = %v, want %v", ch, i, v, w)
			}
		}
	}
}

func TestHalfPrecisionQuantizes(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	half := newTarget(t, e, gpu.TargetSpec{Width: 1, Height: 1, Layout: gpu.R, Precision: gpu.PrecisionHalf})
	full := newTarget(t, e, gpu.TargetSpec{Width: 1, Height: 1, Layout: gpu.R, Precision: gpu.PrecisionFloat})
	fill := compile(t, e, "fill", fillSource)

	if err := fill.Use(gpu.Params{"color": gpu.Vec4{1.0001, 0, 0, 1}}); err != nil {
		t.Fatal(err)
	}
	for _, tgt := range []gpu.Target{half, full} {
		if err := fill.Blit(tgt, gpu.Viewport{}); err != nil {
			t.Fatal(err)
		}
	}

	if got := half.(*texture).data[0]; got != 1 {
		t.Errorf("half storage = %v, want 1", got)
	}
	if got := full.(*texture).data[0]; got != float32(1.0001) {
		t.Errorf("float storage = %v, want 1.0001", got)
	}
}

func TestTexelCentres(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 4, Height: 2, Layout: gpu.RG, Precision: gpu.PrecisionFloat})
	grad := compile(t, e, "gradient", gradientSource)
	if err := grad.Blit(tgt, gpu.Viewport{}); err != nil {
		t.Fatal(err)
	}

	tex := tgt.(*texture)
	c := tex.texel(tex.data, 0, 0)
	if c[0] != 0.125 || c[1] != 0.25 {
		t.Errorf("texel (0,0) = %v, want u=0.125 v=0.25", c)
	}
	c = tex.texel(tex.data, 3, 1)
	if c[0] != 0.875 || c[1] != 0.75 {
		t.Errorf("texel (3,1) = %v, want u=0.875 v=0.75", c)
	}
}

func TestLinearSamplingAndClamp(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 2, Height: 1, Layout: gpu.R, Precision: gpu.PrecisionFloat})
	tex := tgt.(*texture)
	tex.store(tex.data, 0, [4]float32{0})
	tex.store(tex.data, 1, [4]float32{1})

	s := tex.sampler()
	tests := []struct {
		u, want float32
	}{
		{0.25, 0},  // first centre
		{0.5, 0.5}, // midway
		{0.75, 1},  // second centre
		{-1, 0},    // clamped left
		{2, 1},     // clamped right
	}
	for _, tt := range tests {
		if got := s.Sample(tt.u, 0.5)[0]; math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("Sample(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}

	tex.filter = gpu.FilterNearest
	s = tex.sampler()
	if got := s.Sample(0.49, 0.5)[0]; got != 0 {
		t.Errorf("nearest Sample(0.49) = %v, want 0", got)
	}
	if got := s.Sample(0.51, 0.5)[0]; got != 1 {
		t.Errorf("nearest Sample(0.51) = %v, want 1", got)
	}
}

func TestBlitReadsPreviousContents(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 4, Height: 1, Layout: gpu.R, Precision: gpu.PrecisionFloat, Filter: gpu.FilterNearest})
	tex := tgt.(*texture)
	for i := 0; i < 4; i++ {
		tex.store(tex.data, i, [4]float32{float32(i)})
	}

	shift := compile(t, e, "shift", shiftSource)
	if err := shift.Use(gpu.Params{"uSource": gpu.Texture{Target: tgt}, "offset": gpu.Vec2{-0.25, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := shift.Blit(tgt, gpu.Viewport{}); err != nil {
		t.Fatal(err)
	}

	want := []float32{0, 0, 1, 2}
	for i, w := range want {
		if got := tex.texel(tex.data, i, 0)[0]; got != w {
			t.Errorf("texel %d = %v, want %v", i, got, w)
		}
	}
}

func TestViewportLimitsWrites(t *testing.T) {
	e := New(4, 4)
	defer e.Close()

	fill := compile(t, e, "fill", fillSource)
	if err := fill.Use(gpu.Params{"color": gpu.Vec4{1, 1, 1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := fill.Blit(e.Screen(), gpu.Viewport{X: 2, Y: 0, Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}

	img := e.ScreenImage()
	// Bottom-right quadrant in GL space is the lower-right of the image.
	if c := img.RGBAAt(3, 3); c.R != 255 {
		t.Errorf("pixel in viewport = %v, want white", c)
	}
	if c := img.RGBAAt(0, 3); c.R != 0 {
		t.Errorf("pixel left of viewport = %v, want black", c)
	}
	if c := img.RGBAAt(3, 0); c.R != 0 {
		t.Errorf("pixel above viewport = %v, want black", c)
	}
}

func TestParallelBlitCoversTarget(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 128, Height: 96, Layout: gpu.RGBA})
	fill := compile(t, e, "fill", fillSource)
	if err := fill.Use(gpu.Params{"color": gpu.Vec4{0.25, 0.5, 0.75, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := fill.Blit(tgt, gpu.Viewport{}); err != nil {
		t.Fatal(err)
	}

	for i, v := range readChannel(t, e, tgt, 2) {
		if v != 0.75 {
			t.Fatalf("texel %d blue = %v, want 0.75", i, v)
		}
	}
}

func TestReadHalfClampsWindow(t *testing.T) {
	e := New(1, 1)
	defer e.Close()

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 2, Height: 2, Layout: gpu.R})
	grad := compile(t, e, "gradient", gradientSource)
	if err := grad.Blit(tgt, gpu.Viewport{}); err != nil {
		t.Fatal(err)
	}

	raw, err := e.ReadHalf(tgt, 0, -1, -1, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 16 {
		t.Fatalf("len = %d, want 16", len(raw))
	}
	vals := gpu.DecodeHalfFloats(raw)
	if vals[0] != 0.25 || vals[15] != 0.75 {
		t.Errorf("corners = %v, %v; want 0.25, 0.75", vals[0], vals[15])
	}

	if _, err := e.ReadHalf(tgt, 4, 0, 0, 1, 1); err == nil {
		t.Error("expected error for channel 4")
	}
}

func TestErrors(t *testing.T) {
	e := New(1, 1)
	defer e.Close()
	other := New(1, 1)
	defer other.Close()

	foreign := newTarget(t, other, gpu.TargetSpec{Width: 1, Height: 1, Layout: gpu.R})
	shift := compile(t, e, "shift", shiftSource)

	if err := shift.Use(gpu.Params{"uSource": gpu.Texture{Target: foreign}}); !errors.Is(err, gpu.ErrForeignTarget) {
		t.Errorf("expected ErrForeignTarget, got %v", err)
	}
	if err := shift.Use(gpu.Params{"nope": gpu.Float(1)}); !errors.Is(err, gpu.ErrUnknownUniform) {
		t.Errorf("expected ErrUnknownUniform, got %v", err)
	}
	if err := shift.Use(gpu.Params{"offset": gpu.Float(1)}); !errors.Is(err, gpu.ErrUniformArity) {
		t.Errorf("expected ErrUniformArity, got %v", err)
	}

	tgt := newTarget(t, e, gpu.TargetSpec{Width: 1, Height: 1, Layout: gpu.R})
	tgt.Release()
	if err := shift.Blit(tgt, gpu.Viewport{}); !errors.Is(err, gpu.ErrReleased) {
		t.Errorf("expected ErrReleased, got %v", err)
	}

	if _, err := e.NewTarget(gpu.TargetSpec{Width: 0, Height: 1, Layout: gpu.R}); !errors.Is(err, gpu.ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", err)
	}
	if _, err := e.Compile("empty", gpu.Source{}); !errors.Is(err, gpu.ErrAllocation) {
		t.Errorf("expected ErrAllocation for missing kernel, got %v", err)
	}
}
