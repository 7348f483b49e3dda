// Package gpu registers the wgpu-backed sprite backend.
//
// Import this package to make the "wgpu" backend available to
// sprite.NewBackend. The backend renders through gogpu/wgpu (Pure Go
// WebGPU, zero CGO) and bootstraps its own Vulkan device on creation:
//
//	import _ "github.com/gogpu/sprite/gpu"
//
//	backend, err := sprite.NewBackend("wgpu")
//
// To share an existing GPU device instead (for example a gogpu window),
// skip the registry and create the backend directly:
//
//	backend, err := gpu.NewWithProvider(win)
//
// Building with the nogpu tag strips the backend and leaves only this
// package's identifiers, so callers compile everywhere and get a registry
// error at runtime.
package gpu

// BackendName is the identifier the wgpu backend registers under.
const BackendName = "wgpu"
