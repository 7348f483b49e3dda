//go:build !nogpu

// Package gpu provides the wgpu-backed execution backend for sprite frames.
//
// This is an internal package used by the sprite library. It leverages WebGPU
// for hardware-accelerated sprite rendering via the gogpu/wgpu Pure Go WebGPU
// implementation (zero CGO), which supports Vulkan, Metal, and DX12 backends
// depending on the platform.
//
// # Architecture Overview
//
// The backend renders one finalized frame per BeginFrame/EndFrame pair:
//
//	Vertex upload -> Render pass -> Per-batch bind + draw -> Submit -> (optional) Readback
//
// Key components:
//
//   - Backend: implements sprite.Backend and sprite.ImageBackend
//   - textureBinding: sampled texture + view + uniform buffer + bind group
//   - spritePipeline: render pipeline, bind group layouts, shared sampler
//   - groupSlot: one batch's group uniform buffer and bind group, reused
//     across frames
//
// All geometry for a frame lives in a single vertex buffer that grows by
// doubling and is never shrunk. Batches index into it with Draw(first, count).
//
// # Render Target
//
// The backend renders offscreen into an RGBA8 texture. Image() copies the
// texture into a staging buffer (rows padded to the 256-byte copy pitch),
// waits for the GPU, and returns the pixels as an *image.RGBA.
//
// # Device Ownership
//
// New() bootstraps its own HAL instance, adapter, and device, and Close()
// destroys them. NewWithDevice() borrows an externally owned device (for
// example from a gogpu window); Close() then releases only the resources
// this package created.
//
// # Shaders
//
// The sprite shader is embedded WGSL, compiled to SPIR-V at pipeline
// creation via gogpu/naga. Texture uniforms (texel size, mask flag) bind at
// group 0 alongside the texture and sampler; target uniforms (target size,
// group transform) bind at group 1 and change per batch.
//
// # Requirements
//
//   - gogpu/wgpu module (github.com/gogpu/wgpu)
//   - A GPU that supports Vulkan, Metal, or DX12 (the hal/noop backend
//     satisfies the API for tests)
//
// # Thread Safety
//
// A Backend is not safe for concurrent use. Frames are encoded and submitted
// one at a time; the sprite package serializes calls for the frame it
// executes.
package gpu
