package gpu

import "fmt"

// Kind is the declared type of a uniform.
type Kind uint8

const (
	KindFloat Kind = iota
	KindVec2
	KindVec3
	KindVec4
	KindMat2
	KindMat4
	KindSampler
)

var kindNames = [...]string{"float", "vec2", "vec3", "vec4", "mat2", "mat4", "sampler2D"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a uniform value.
type Value interface {
	Kind() Kind
}

// Float is a scalar uniform.
type Float float32

// Vec2 is a two component uniform.
type Vec2 [2]float32

// Vec3 is a three component uniform.
type Vec3 [3]float32

// Vec4 is a four component uniform.
type Vec4 [4]float32

// Mat2 is a column-major 2×2 matrix uniform. GLSL sources declare it as a
// vec4 and rebuild it with mat2(m.xy, m.zw).
type Mat2 [4]float32

// Mat4 is a column-major 4×4 matrix uniform.
type Mat4 [16]float32

// Texture binds a target to a sampler uniform.
type Texture struct {
	Target Target
}

func (Float) Kind() Kind   { return KindFloat }
func (Vec2) Kind() Kind    { return KindVec2 }
func (Vec3) Kind() Kind    { return KindVec3 }
func (Vec4) Kind() Kind    { return KindVec4 }
func (Mat2) Kind() Kind    { return KindMat2 }
func (Mat4) Kind() Kind    { return KindMat4 }
func (Texture) Kind() Kind { return KindSampler }

// Params maps uniform names to values for one Program.Use call.
type Params map[string]Value

// Uniform declares a uniform a program accepts.
type Uniform struct {
	Name string
	Kind Kind
}

// Source is a program description: the GLSL pair for GPU engines, the
// uniforms both stages declare, and Kernel, the host-side rendition of the
// fragment stage used by engines that have no GPU.
type Source struct {
	Vertex   string
	Fragment string
	Uniforms []Uniform
	Kernel   Kernel
}

// Check validates params against the declared uniforms.
func (s Source) Check(program string, params Params) error {
	for name, v := range params {
		kind, ok := s.lookup(name)
		if !ok {
			return fmt.Errorf("%w: %q in program %q", ErrUnknownUniform, name, program)
		}
		if v == nil || v.Kind() != kind {
			return fmt.Errorf("%w: %q in program %q wants %s, got %T", ErrUniformArity, name, program, kind, v)
		}
		if tex, ok := v.(Texture); ok && tex.Target == nil {
			return fmt.Errorf("%w: %q in program %q bound to nil target", ErrUniformArity, name, program)
		}
	}
	return nil
}

func (s Source) lookup(name string) (Kind, bool) {
	for _, u := range s.Uniforms {
		if u.Name == name {
			return u.Kind, true
		}
	}
	return 0, false
}

// Kernel is invoked once per blit with the bound uniforms and returns the
// function evaluated at every destination texel centre (u, v in [0,1],
// origin bottom-left). Shade functions must be safe for concurrent calls.
type Kernel func(b Bindings) Shade

// Shade computes one RGBA fragment.
type Shade func(u, v float32) [4]float32

// Bindings gives a kernel read access to its uniforms. Unbound names read as
// zero values.
type Bindings interface {
	Float(name string) float32
	Vec2(name string) [2]float32
	Vec3(name string) [3]float32
	Vec4(name string) [4]float32
	Mat2(name string) [4]float32
	Mat4(name string) [16]float32
	Sampler(name string) Sampler
}

// Sampler reads a bound target with its filter and clamp-to-edge wrapping.
type Sampler interface {
	Sample(u, v float32) [4]float32
}
