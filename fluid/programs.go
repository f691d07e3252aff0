package fluid

import (
	"embed"
	"fmt"

	"github.com/pthm-cable/plume/gpu"
)

//go:embed shaders/*.vert shaders/*.frag
var shaderFS embed.FS

// Program names.
const (
	progCopy       = "copy"
	progSplat      = "splat"
	progCircle     = "circle"
	progCurl       = "curl"
	progVorticity  = "vorticity"
	progDivergence = "divergence"
	progPressure   = "pressure"
	progGradient   = "gradient"
	progAdvection  = "advection"
	progDisplay    = "display"
)

type programDef struct {
	name     string
	uniforms []gpu.Uniform
	kernel   gpu.Kernel
}

var programDefs = []programDef{
	{progCopy, []gpu.Uniform{
		{Name: "uSource", Kind: gpu.KindSampler},
		{Name: "scale", Kind: gpu.KindVec4},
	}, copyKernel},
	{progSplat, []gpu.Uniform{
		{Name: "uTarget", Kind: gpu.KindSampler},
		{Name: "point", Kind: gpu.KindVec2},
		{Name: "color", Kind: gpu.KindVec3},
		{Name: "ellipse", Kind: gpu.KindMat2},
	}, splatKernel},
	{progCircle, []gpu.Uniform{
		{Name: "uTarget", Kind: gpu.KindSampler},
		{Name: "point", Kind: gpu.KindVec2},
		{Name: "value", Kind: gpu.KindVec3},
		{Name: "ellipse", Kind: gpu.KindMat2},
	}, circleKernel},
	{progCurl, []gpu.Uniform{
		{Name: "uVelocity", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
	}, curlKernel},
	{progVorticity, []gpu.Uniform{
		{Name: "uVelocity", Kind: gpu.KindSampler},
		{Name: "uCurl", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
		{Name: "curl", Kind: gpu.KindFloat},
		{Name: "dt", Kind: gpu.KindFloat},
	}, vorticityKernel},
	{progDivergence, []gpu.Uniform{
		{Name: "uVelocity", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
	}, divergenceKernel},
	{progPressure, []gpu.Uniform{
		{Name: "uPressure", Kind: gpu.KindSampler},
		{Name: "uDivergence", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
	}, pressureKernel},
	{progGradient, []gpu.Uniform{
		{Name: "uPressure", Kind: gpu.KindSampler},
		{Name: "uVelocity", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
	}, gradientKernel},
	{progAdvection, []gpu.Uniform{
		{Name: "uVelocity", Kind: gpu.KindSampler},
		{Name: "uSource", Kind: gpu.KindSampler},
		{Name: "texelSize", Kind: gpu.KindVec2},
		{Name: "dt", Kind: gpu.KindFloat},
		{Name: "dissipation", Kind: gpu.KindFloat},
	}, advectionKernel},
	{progDisplay, []gpu.Uniform{
		{Name: "uSource", Kind: gpu.KindSampler},
		{Name: "transform", Kind: gpu.KindMat4},
	}, displayKernel},
}

func (d programDef) source() (gpu.Source, error) {
	vert, err := shaderFS.ReadFile("shaders/base.vert")
	if err != nil {
		return gpu.Source{}, err
	}
	frag, err := shaderFS.ReadFile("shaders/" + d.name + ".frag")
	if err != nil {
		return gpu.Source{}, err
	}
	return gpu.Source{
		Vertex:   string(vert),
		Fragment: string(frag),
		Uniforms: d.uniforms,
		Kernel:   d.kernel,
	}, nil
}

// programs holds every compiled pass.
type programs map[string]gpu.Program

func compilePrograms(eng gpu.Engine) (programs, error) {
	progs := make(programs, len(programDefs))
	for _, def := range programDefs {
		src, err := def.source()
		if err != nil {
			progs.release()
			return nil, fmt.Errorf("loading %s shader: %w", def.name, err)
		}
		p, err := eng.Compile(def.name, src)
		if err != nil {
			progs.release()
			return nil, fmt.Errorf("compiling %s: %w", def.name, err)
		}
		progs[def.name] = p
	}
	return progs, nil
}

func (p programs) release() {
	for name, prog := range p {
		prog.Release()
		delete(p, name)
	}
}
