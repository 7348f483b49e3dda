package sprite

import "fmt"

// FrameState represents the lifecycle state of a frame.
type FrameState int

const (
	// FrameBuilding means the frame is accepting sprite submissions.
	FrameBuilding FrameState = iota

	// FrameFinalized means batches have been produced and the frame is
	// ready to execute. No further submissions are accepted.
	FrameFinalized

	// FrameExecuted means the frame's draw calls have been issued.
	// A frame executes at most once per finalize.
	FrameExecuted

	// FrameDiscarded means the frame was abandoned or consumed. A frame
	// discarded before execution has no GPU side effects.
	FrameDiscarded
)

// String returns the string representation of FrameState.
func (s FrameState) String() string {
	switch s {
	case FrameBuilding:
		return "Building"
	case FrameFinalized:
		return "Finalized"
	case FrameExecuted:
		return "Executed"
	case FrameDiscarded:
		return "Discarded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// FrameStats reports what a frame cost. DrawCalls and BindSwitches are the
// two numbers batching exists to minimize; the others give them scale.
type FrameStats struct {
	// Sprites is the number of sprites accepted into the frame.
	Sprites int

	// Batches is the number of batches produced at finalize.
	Batches int

	// DrawCalls is the number of draw calls issued, one per batch.
	DrawCalls int

	// BindSwitches is the number of texture bind-group switches issued.
	// Consecutive batches sharing a texture skip the rebind, so this can
	// be lower than DrawCalls.
	BindSwitches int

	// VertexBytes is the size of the staged vertex data.
	VertexBytes int
}

// DefaultMaxBufferSize is the default hard cap for a frame's staged vertex
// data. Growth past the cap fails with ErrBufferOverflow.
const DefaultMaxBufferSize = 64 << 20

// defaultSpriteCapacity is the initial staging capacity, in sprites.
const defaultSpriteCapacity = 64

// FrameOption configures a Frame during creation.
//
// Example:
//
//	// Default frame
//	f := sprite.NewFrame(reg, 800, 600)
//
//	// Frame that sorts sprites by texture before batching
//	f := sprite.NewFrame(reg, 800, 600, sprite.WithReorder())
type FrameOption func(*frameOptions)

// frameOptions holds optional configuration for Frame creation.
type frameOptions struct {
	maxBytes int
	capacity int
	reorder  bool
}

// defaultFrameOptions returns the default frame options.
func defaultFrameOptions() frameOptions {
	return frameOptions{
		maxBytes: DefaultMaxBufferSize,
		capacity: defaultSpriteCapacity,
	}
}

// WithMaxBufferSize sets the hard cap, in bytes, for the frame's staged
// vertex data. Submissions that would grow past the cap fail with
// ErrBufferOverflow and abort the frame.
func WithMaxBufferSize(n int) FrameOption {
	return func(o *frameOptions) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithCapacity pre-allocates staging space for n sprites, avoiding growth
// reallocations when the caller knows the frame's sprite count up front.
func WithCapacity(n int) FrameOption {
	return func(o *frameOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithReorder enables reorderable submission: at finalize, sprites are
// stably sorted by (texture, group transform) before batching, collapsing
// same-texture sprites into one batch even when submissions interleave.
//
// Reordering changes the relative draw order of sprites with different
// keys, which breaks alpha blending wherever such sprites overlap. Only
// request it when sprites are known not to overlap; it is never the
// default.
func WithReorder() FrameOption {
	return func(o *frameOptions) {
		o.reorder = true
	}
}

// Frame accumulates one draw cycle: sprites are submitted in back-to-front
// order while Building, collapse into batches at Finalize, and are issued
// as draw calls by Execute. All vertex data for the frame lives in one
// growable staging buffer that is rewritten from scratch each cycle.
//
// State machine:
//
//	Building -> Finalize() -> Finalized -> Execute() -> Executed
//	    any state -> Discard() -> Discarded
//	    any state -> Reset()   -> Building
//
// Frame is not safe for concurrent use: submission, finalize and execute
// for one frame happen on a single goroutine. The registry is the only
// state shared across frames and carries its own locking.
type Frame struct {
	registry *Registry
	state    FrameState

	// width, height is the target size in pixels, baked into each
	// batch's group uniform block.
	width, height int

	// verts is the frame's staged vertex data: VerticesPerSprite
	// vertices of VertexStride bytes per accepted sprite, in submission
	// order. It grows by doubling up to maxBytes and is truncated, not
	// freed, on Reset.
	verts    []byte
	maxBytes int

	// keys records each accepted sprite's bind state, parallel to the
	// sprite blocks in verts.
	keys []spriteKey

	// transforms is the frame's group transform table; TransformID n
	// refers to transforms[n-1].
	transforms []Affine

	batches []Batch
	reorder bool
	stats   FrameStats

	// reorder-mode scratch, reused across cycles.
	perm       []int
	scratch    []byte
	keyScratch []spriteKey
}

// NewFrame creates a frame drawing to a target of the given pixel size.
// Texture ids submitted to the frame resolve through reg.
// NewFrame panics if reg is nil.
func NewFrame(reg *Registry, width, height int, opts ...FrameOption) *Frame {
	if reg == nil {
		panic("sprite: NewFrame registry is nil")
	}
	o := defaultFrameOptions()
	for _, opt := range opts {
		opt(&o)
	}
	capBytes := o.capacity * bytesPerSprite
	if capBytes > o.maxBytes {
		capBytes = o.maxBytes
	}
	return &Frame{
		registry: reg,
		width:    width,
		height:   height,
		maxBytes: o.maxBytes,
		reorder:  o.reorder,
		verts:    make([]byte, 0, capBytes),
		keys:     make([]spriteKey, 0, o.capacity),
	}
}

// State returns the frame's current lifecycle state.
func (f *Frame) State() FrameState {
	return f.state
}

// Width returns the target width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the target height in pixels.
func (f *Frame) Height() int { return f.height }

// Stats returns the frame's counters. Sprites, Batches and VertexBytes are
// valid after Finalize; DrawCalls and BindSwitches after Execute.
func (f *Frame) Stats() FrameStats {
	return f.stats
}

// Batches returns the batches produced at finalize, in draw order. The
// returned slice is owned by the frame and valid until Reset.
func (f *Frame) Batches() []Batch {
	return f.batches
}

// checkState returns an error if the frame is not in the wanted state.
func (f *Frame) checkState(want FrameState, op string) error {
	if f.state != want {
		return fmt.Errorf("%w: %s requires %s, frame is %s", ErrInvalidState, op, want, f.state)
	}
	return nil
}

// RegisterTransform records a group transform on the frame and returns its
// id for use in Sprite.Group. Transforms are frame-scoped and cleared by
// Reset. Valid only while Building.
func (f *Frame) RegisterTransform(a Affine) (TransformID, error) {
	if err := f.checkState(FrameBuilding, "RegisterTransform"); err != nil {
		return 0, err
	}
	f.transforms = append(f.transforms, a)
	return TransformID(len(f.transforms)), nil
}

// Submit accepts one sprite into the frame, expanding it to vertices in the
// staging buffer. Sprites draw in submission order.
//
// A sprite referencing an unregistered texture or transform is dropped with
// an error; the frame stays valid and later submissions proceed. A sprite
// that would grow the staging buffer past its hard cap fails with
// ErrBufferOverflow and aborts the whole frame.
func (f *Frame) Submit(s Sprite) error {
	if err := f.checkState(FrameBuilding, "Submit"); err != nil {
		return err
	}

	info, err := f.registry.Lookup(s.Texture)
	if err != nil {
		Logger().Warn("sprite dropped", "texture", uint32(s.Texture), "err", err)
		return err
	}
	if s.Group.IsValid() && int(s.Group) > len(f.transforms) {
		Logger().Warn("sprite dropped", "transform", uint32(s.Group))
		return fmt.Errorf("%w: id %d", ErrUnknownTransform, s.Group)
	}

	if err := f.grow(bytesPerSprite); err != nil {
		f.state = FrameDiscarded
		return err
	}
	off := len(f.verts)
	f.verts = f.verts[:off+bytesPerSprite]
	writeSpriteVertices(f.verts[off:], &s)
	f.keys = append(f.keys, spriteKey{texture: s.Texture, group: s.Group, binding: info.Binding})
	return nil
}

// grow ensures room for n more staged bytes, doubling capacity until it
// covers the need and clamping at the hard cap. It fails with
// ErrBufferOverflow when the need itself exceeds the cap.
func (f *Frame) grow(n int) error {
	need := len(f.verts) + n
	if need <= cap(f.verts) {
		return nil
	}
	if need > f.maxBytes {
		return fmt.Errorf("%w: need %d bytes, cap %d", ErrBufferOverflow, need, f.maxBytes)
	}
	newCap := cap(f.verts) * 2
	if newCap < need {
		newCap = need
	}
	if newCap > f.maxBytes {
		newCap = f.maxBytes
	}
	grown := make([]byte, len(f.verts), newCap)
	copy(grown, f.verts)
	f.verts = grown
	Logger().Debug("vertex staging grown", "cap", newCap)
	return nil
}

// Finalize produces the frame's batches and moves it to Finalized. Batches
// are produced exactly once; finalizing an empty frame yields zero batches
// and is valid.
func (f *Frame) Finalize() error {
	if err := f.checkState(FrameBuilding, "Finalize"); err != nil {
		return err
	}

	if f.reorder && len(f.keys) > 1 {
		f.applyReorder()
	}
	f.batches = batchRuns(f.keys, f.batches[:0])

	// Bake each batch's uniform block now so Execute never touches the
	// registry or the transform table.
	for i := range f.batches {
		b := &f.batches[i]
		m := Identity().Mat4()
		if b.Group.IsValid() {
			m = f.transforms[b.Group-1].Mat4()
		}
		b.uniforms = GroupUniformBytes(f.width, f.height, m)
	}

	f.stats = FrameStats{
		Sprites:     len(f.keys),
		Batches:     len(f.batches),
		VertexBytes: len(f.verts),
	}
	f.state = FrameFinalized
	Logger().Debug("frame finalized",
		"sprites", f.stats.Sprites, "batches", f.stats.Batches,
		"bytes", f.stats.VertexBytes, "reorder", f.reorder)
	return nil
}

// applyReorder stably sorts the staged sprites by batch key, permuting both
// the key list and the 216-byte vertex blocks through scratch buffers that
// persist across cycles.
func (f *Frame) applyReorder() {
	f.perm = sortKeyPerm(f.keys, f.perm)

	if cap(f.scratch) < cap(f.verts) {
		f.scratch = make([]byte, 0, cap(f.verts))
	}
	f.scratch = f.scratch[:len(f.verts)]
	f.keyScratch = f.keyScratch[:0]
	for dst, src := range f.perm {
		copy(f.scratch[dst*bytesPerSprite:(dst+1)*bytesPerSprite],
			f.verts[src*bytesPerSprite:(src+1)*bytesPerSprite])
		f.keyScratch = append(f.keyScratch, f.keys[src])
	}
	f.verts, f.scratch = f.scratch, f.verts
	f.keys, f.keyScratch = f.keyScratch, f.keys
}

// Discard abandons the frame. A frame discarded before Execute has no GPU
// side effects, since nothing reaches the backend until then. Discard is
// idempotent.
func (f *Frame) Discard() {
	if f.state == FrameDiscarded {
		return
	}
	f.state = FrameDiscarded
}

// Reset returns the frame to Building for a new cycle against a target of
// the given size. Staged data, batches and frame transforms are cleared;
// allocations are kept, which is what amortizes buffer growth across
// frames.
func (f *Frame) Reset(width, height int) {
	f.width, f.height = width, height
	f.verts = f.verts[:0]
	f.keys = f.keys[:0]
	f.batches = f.batches[:0]
	f.transforms = f.transforms[:0]
	f.stats = FrameStats{}
	f.state = FrameBuilding
}
