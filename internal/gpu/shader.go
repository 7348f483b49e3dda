//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// compileSpriteShader creates the HAL shader module for the sprite pipeline.
// The embedded WGSL is precompiled to SPIR-V through naga; if the
// precompiler rejects the source, the WGSL is handed to the HAL backend to
// compile itself.
func compileSpriteShader(device hal.Device) (hal.ShaderModule, error) {
	if spriteShaderSource == "" {
		return nil, fmt.Errorf("sprite shader source is empty")
	}

	words, err := compileToSPIRV(spriteShaderSource)
	if err != nil {
		slogger().Debug("naga precompile failed, passing WGSL through", "error", err)
		module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "sprite_shader",
			Source: hal.ShaderSource{WGSL: spriteShaderSource},
		})
		if err != nil {
			return nil, fmt.Errorf("compile sprite shader: %w", err)
		}
		return module, nil
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("create sprite shader module: %w", err)
	}
	return module, nil
}

// compileToSPIRV compiles WGSL source to SPIR-V words via naga.
func compileToSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("invalid SPIR-V length: %d bytes", len(spirvBytes))
	}

	// SPIR-V words are little-endian.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
