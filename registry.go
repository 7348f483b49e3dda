package sprite

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// Registry maps texture ids to their GPU-side bindings. It is the one piece
// of engine state shared across frames: Register and Unregister serialize
// against concurrent Lookup, so submissions may come from a different
// goroutine than the one registering assets.
//
// The registry exclusively owns every binding it builds. Bindings are
// constructed once at registration, never per frame, and released only on
// Unregister, Close, or replacement by a re-Register. This amortizes the
// dominant fixed cost of texture switching that batching exists to minimize.
type Registry struct {
	mu       sync.RWMutex
	backend  Backend
	textures map[TextureID]TextureInfo
	closed   bool
}

// NewRegistry creates a texture registry backed by b, which builds the
// per-texture bindings.
func NewRegistry(b Backend) (*Registry, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	return &Registry{
		backend:  b,
		textures: make(map[TextureID]TextureInfo),
	}, nil
}

// Register records a texture under the caller-chosen id and builds its
// binding (texture view, sampler, per-texture uniform block). The texture
// argument is the backend's opaque GPU texture handle.
//
// Registering an id that is already present replaces it: the old binding is
// released and a new one is built. This is the only path that rebuilds a
// binding, and callers use it when a texture's underlying GPU resource
// changes.
//
// Textures must stay registered until every frame referencing them has
// executed; unregistering earlier leaves queued batches with a released
// binding.
func (r *Registry) Register(id TextureID, texture any, size image.Point, mask bool) error {
	if !id.IsValid() {
		return errors.New("sprite: texture id zero is reserved")
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("sprite: invalid texture size %dx%d", size.X, size.Y)
	}

	binding, err := r.backend.CreateTextureBinding(texture, size, mask)
	if err != nil {
		return fmt.Errorf("create texture binding: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		binding.Release()
		return errors.New("sprite: registry is closed")
	}
	old, replaced := r.textures[id]
	r.textures[id] = TextureInfo{ID: id, Size: size, Mask: mask, Binding: binding}
	r.mu.Unlock()

	if replaced {
		old.Binding.Release()
	}
	Logger().Debug("texture registered",
		"id", uint32(id), "size", size, "mask", mask, "replaced", replaced)
	return nil
}

// Unregister releases the texture's binding and forgets the id. A later
// Lookup of the same id fails with ErrUnknownTexture until it is registered
// again.
func (r *Registry) Unregister(id TextureID) error {
	r.mu.Lock()
	info, ok := r.textures[id]
	if ok {
		delete(r.textures, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownTexture, id)
	}
	info.Binding.Release()
	Logger().Debug("texture unregistered", "id", uint32(id))
	return nil
}

// Lookup resolves a texture id. It fails with ErrUnknownTexture when the id
// was never registered or has been unregistered.
func (r *Registry) Lookup(id TextureID) (TextureInfo, error) {
	r.mu.RLock()
	info, ok := r.textures[id]
	r.mu.RUnlock()

	if !ok {
		return TextureInfo{}, fmt.Errorf("%w: id %d", ErrUnknownTexture, id)
	}
	return info, nil
}

// Len returns the number of registered textures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.textures)
}

// Close releases every binding the registry still owns and rejects further
// registrations. Close is idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	released := make([]TextureBinding, 0, len(r.textures))
	for id, info := range r.textures {
		released = append(released, info.Binding)
		delete(r.textures, id)
	}
	r.mu.Unlock()

	for _, b := range released {
		b.Release()
	}
	Logger().Debug("registry closed", "released", len(released))
}
