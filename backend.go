package sprite

import (
	"fmt"
	"image"
	"sort"
	"sync"
)

// TextureBinding is a GPU-side texture binding: the texture view, its
// sampler, and the small per-texture uniform block bound together for one
// draw call. Bindings are built by the backend, owned by the registry, and
// released exactly once.
type TextureBinding interface {
	// Release frees the binding's GPU resources. Release is idempotent.
	Release()
}

// Backend is the contract between the portable engine core and a GPU
// implementation. The core needs exactly three primitive capabilities
// (buffer upload, bind-group binding, and draw-call issuance) plus binding
// construction and a per-frame bracket; it is backend-agnostic beyond them.
//
// The frame primitives (UploadVertices through Draw) are only valid between
// BeginFrame and EndFrame, and are invoked from a single goroutine in
// submission order. Nothing reaches the GPU queue before EndFrame returns
// the encoded work, so an abandoned frame has no GPU side effects.
//
// Backends are registered via RegisterBackend in their package's init()
// and created by name with NewBackend.
type Backend interface {
	// CreateTextureBinding builds the one-per-texture binding from an
	// opaque GPU texture handle. The concrete handle type is
	// backend-specific; the wgpu backend expects a hal.Texture.
	CreateTextureBinding(texture any, size image.Point, mask bool) (TextureBinding, error)

	// BeginFrame opens the frame bracket for a target of the given pixel
	// size: command encoder, render pass, cleared color target.
	BeginFrame(width, height int) error

	// UploadVertices rewrites the frame's combined vertex buffer with the
	// staged bytes, growing the GPU buffer as needed.
	UploadVertices(data []byte) error

	// UploadGroupUniforms writes one batch's uniform block into the slot's
	// uniform buffer.
	UploadGroupUniforms(slot int, data []byte) error

	// BindTexture binds a texture binding for subsequent draws.
	BindTexture(b TextureBinding) error

	// BindGroupUniforms binds the slot's uniform buffer for subsequent draws.
	BindGroupUniforms(slot int) error

	// Draw issues one non-indexed draw call over a vertex range of the
	// frame's combined buffer.
	Draw(first, count uint32) error

	// EndFrame closes the render pass and submits the encoded work.
	EndFrame() error

	// Close releases the backend's GPU resources. Bindings created by
	// CreateTextureBinding are released by their owners, not by Close.
	Close()
}

// ImageBackend is an optional extension for backends that can read the
// rendered target back into CPU memory. Headless backends implement it so
// callers can fetch the frame as an image after EndFrame.
type ImageBackend interface {
	Backend

	// Image returns the most recently executed frame as RGBA pixels.
	Image() (*image.RGBA, error)
}

// BackendFactory is a function that creates a new backend instance.
// Factories are registered via RegisterBackend() and called by NewBackend().
type BackendFactory func() (Backend, error)

// Registry state - protected by mutex for thread-safe access.
var (
	backendMu sync.RWMutex
	factories = make(map[string]BackendFactory)
)

// RegisterBackend registers a backend factory with the given name.
// This function is typically called from init() in backend packages,
// following the database/sql driver pattern:
//
//	func init() {
//	    sprite.RegisterBackend("wgpu", func() (sprite.Backend, error) {
//	        return gpu.New()
//	    })
//	}
//
// RegisterBackend panics if:
//   - factory is nil
//   - a backend with the same name is already registered
//
// This ensures that duplicate registrations are caught early during
// program initialization rather than silently overwriting backends.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()

	if factory == nil {
		panic("sprite: RegisterBackend factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("sprite: RegisterBackend called twice for " + name)
	}
	factories[name] = factory
}

// UnregisterBackend removes a backend from the registry.
// This is primarily useful for testing to clean up between tests.
// If the backend is not registered, this is a no-op.
func UnregisterBackend(name string) {
	backendMu.Lock()
	defer backendMu.Unlock()
	delete(factories, name)
}

// NewBackend creates a new backend instance by name.
// The name must match a previously registered backend.
//
// Example:
//
//	import _ "github.com/gogpu/sprite/gpu" // register the wgpu backend
//
//	backend, err := sprite.NewBackend("wgpu")
//	if err != nil {
//	    // Handle error - backend not registered or device unavailable
//	}
//
// Returns an error if the backend is not registered.
// The error message includes a hint about forgotten imports.
// The new instance receives the currently configured logger.
func NewBackend(name string) (Backend, error) {
	backendMu.RLock()
	factory, ok := factories[name]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("sprite: unknown backend %q (forgotten import?)", name)
	}
	b, err := factory()
	if err != nil {
		return nil, err
	}
	propagateLogger(b, Logger())
	return b, nil
}

// Backends returns a sorted list of registered backend names.
// The list is sorted alphabetically for consistent output.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
