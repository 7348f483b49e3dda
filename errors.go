package sprite

import "errors"

// Engine errors.
var (
	// ErrUnknownTexture is returned when a texture id has not been registered,
	// or was unregistered before use. The offending sprite is dropped; the
	// frame itself stays valid.
	ErrUnknownTexture = errors.New("sprite: unknown texture")

	// ErrUnknownTransform is returned when a sprite references a group
	// transform id that was not registered on its frame.
	ErrUnknownTransform = errors.New("sprite: unknown transform")

	// ErrBufferOverflow is returned when growing the vertex buffer would
	// exceed the frame's configured hard cap. The frame is aborted.
	ErrBufferOverflow = errors.New("sprite: vertex buffer overflow")

	// ErrInvalidState is returned when an operation is called in the wrong
	// frame state, e.g. Submit after Finalize. This is a programming error
	// and is never retried internally.
	ErrInvalidState = errors.New("sprite: invalid frame state")

	// ErrNilBackend is returned when a registry or executor is given a nil
	// backend.
	ErrNilBackend = errors.New("sprite: backend is nil")
)
