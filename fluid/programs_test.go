package fluid

import (
	"strings"
	"testing"

	"github.com/pthm-cable/plume/gpu"
)

var glslTypes = map[gpu.Kind]string{
	gpu.KindFloat:   "float",
	gpu.KindVec2:    "vec2",
	gpu.KindVec3:    "vec3",
	gpu.KindVec4:    "vec4",
	gpu.KindMat2:    "vec4",
	gpu.KindMat4:    "mat4",
	gpu.KindSampler: "sampler2D",
}

func TestShadersDeclareUniforms(t *testing.T) {
	for _, def := range programDefs {
		t.Run(def.name, func(t *testing.T) {
			src, err := def.source()
			if err != nil {
				t.Fatalf("source: %v", err)
			}
			if !strings.Contains(src.Vertex, "out vec2 vUv;") {
				t.Error("vertex shader does not export vUv")
			}
			if src.Kernel == nil {
				t.Error("missing host kernel")
			}
			for _, u := range def.uniforms {
				decl := "uniform " + glslTypes[u.Kind] + " " + u.Name + ";"
				if !strings.Contains(src.Fragment, decl) {
					t.Errorf("fragment shader missing %q", decl)
				}
			}
			if n := strings.Count(src.Fragment, "uniform "); n != len(def.uniforms) {
				t.Errorf("fragment declares %d uniforms, table has %d", n, len(def.uniforms))
			}
		})
	}
}
