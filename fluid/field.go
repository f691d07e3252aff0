package fluid

import (
	"fmt"

	"github.com/pthm-cable/plume/gpu"
)

// Field is a single-buffered grid.
type Field struct {
	spec   gpu.TargetSpec
	target gpu.Target
}

func createField(eng gpu.Engine, spec gpu.TargetSpec) (*Field, error) {
	t, err := eng.NewTarget(spec)
	if err != nil {
		return nil, fmt.Errorf("creating %dx%d field: %w", spec.Width, spec.Height, err)
	}
	return &Field{spec: spec, target: t}, nil
}

func (f *Field) Target() gpu.Target { return f.target }
func (f *Field) Width() int         { return f.spec.Width }
func (f *Field) Height() int        { return f.spec.Height }

// TexelSize is (1/width, 1/height).
func (f *Field) TexelSize() gpu.Vec2 {
	return gpu.Vec2{1 / float32(f.spec.Width), 1 / float32(f.spec.Height)}
}

func (f *Field) release() {
	if f != nil && f.target != nil {
		f.target.Release()
		f.target = nil
	}
}

// resize replaces the storage with a w×h target of precision prec. When cp is non-nil the
// old contents are resampled into the new storage, multiplied per channel
// by scale.
func (f *Field) resize(eng gpu.Engine, w, h int, prec gpu.Precision, cp gpu.Program, scale gpu.Vec4) error {
	spec := f.spec
	spec.Width, spec.Height, spec.Precision = w, h, prec
	next, err := eng.NewTarget(spec)
	if err != nil {
		return fmt.Errorf("resizing field to %dx%d: %w", w, h, err)
	}
	if cp != nil {
		if err := blitCopy(cp, f.target, next, scale); err != nil {
			next.Release()
			return err
		}
	}
	f.target.Release()
	f.target = next
	f.spec = spec
	return nil
}

// DoubleField is a read/write pair of equally sized targets. Passes read
// Read, write Write, then Swap.
type DoubleField struct {
	spec    gpu.TargetSpec
	targets [2]gpu.Target
	active  int
}

func createDoubleField(eng gpu.Engine, spec gpu.TargetSpec) (*DoubleField, error) {
	d := &DoubleField{spec: spec}
	for i := range d.targets {
		t, err := eng.NewTarget(spec)
		if err != nil {
			d.release()
			return nil, fmt.Errorf("creating %dx%d double field: %w", spec.Width, spec.Height, err)
		}
		d.targets[i] = t
	}
	return d, nil
}

func (d *DoubleField) Read() gpu.Target  { return d.targets[d.active] }
func (d *DoubleField) Write() gpu.Target { return d.targets[1-d.active] }
func (d *DoubleField) Swap()             { d.active ^= 1 }
func (d *DoubleField) Width() int        { return d.spec.Width }
func (d *DoubleField) Height() int       { return d.spec.Height }

// TexelSize is (1/width, 1/height).
func (d *DoubleField) TexelSize() gpu.Vec2 {
	return gpu.Vec2{1 / float32(d.spec.Width), 1 / float32(d.spec.Height)}
}

func (d *DoubleField) release() {
	if d == nil {
		return
	}
	for i, t := range d.targets {
		if t != nil {
			t.Release()
			d.targets[i] = nil
		}
	}
}

// resize reallocates both buffers at w×h. Only the readable buffer carries
// content, so only it is resampled.
func (d *DoubleField) resize(eng gpu.Engine, w, h int, prec gpu.Precision, cp gpu.Program, scale gpu.Vec4) error {
	spec := d.spec
	spec.Width, spec.Height, spec.Precision = w, h, prec
	next, err := createDoubleField(eng, spec)
	if err != nil {
		return err
	}
	if cp != nil {
		if err := blitCopy(cp, d.Read(), next.Read(), scale); err != nil {
			next.release()
			return err
		}
	}
	d.release()
	*d = *next
	return nil
}

func blitCopy(cp gpu.Program, src, dst gpu.Target, scale gpu.Vec4) error {
	if err := cp.Use(gpu.Params{
		"uSource": gpu.Texture{Target: src},
		"scale":   scale,
	}); err != nil {
		return err
	}
	return cp.Blit(dst, gpu.Viewport{})
}
