package sprite

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

// newTestFrame returns a 320x200 frame over a registry with textures
// 1 ("texA") and 2 ("texB") registered.
func newTestFrame(t *testing.T, opts ...FrameOption) (*Frame, *Registry, *fakeBackend) {
	t.Helper()
	reg, backend := newTestRegistry(t)
	if err := reg.Register(1, "texA", image.Pt(64, 64), false); err != nil {
		t.Fatalf("Register(texA) failed: %v", err)
	}
	if err := reg.Register(2, "texB", image.Pt(64, 64), false); err != nil {
		t.Fatalf("Register(texB) failed: %v", err)
	}
	return NewFrame(reg, 320, 200, opts...), reg, backend
}

// testSprite returns a unit sprite for the given texture, placed at x.
func testSprite(tex TextureID, x float32) Sprite {
	return Sprite{
		Texture:   tex,
		Src:       image.Rect(0, 0, 8, 8),
		Transform: Translation(x, 0),
		Tint:      color.RGBA{255, 255, 255, 255},
	}
}

// submitN submits n unit sprites for the given texture.
func submitN(t *testing.T, f *Frame, tex TextureID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.Submit(testSprite(tex, 0)); err != nil {
			t.Fatalf("Submit(texture %d) failed: %v", tex, err)
		}
	}
}

func TestFrameStateString(t *testing.T) {
	tests := []struct {
		state FrameState
		want  string
	}{
		{FrameBuilding, "Building"},
		{FrameFinalized, "Finalized"},
		{FrameExecuted, "Executed"},
		{FrameDiscarded, "Discarded"},
		{FrameState(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("FrameState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestNewFrameNilRegistry(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil registry")
		}
	}()
	NewFrame(nil, 64, 64)
}

func TestNewFrameDefaults(t *testing.T) {
	f, _, _ := newTestFrame(t)

	if got := f.State(); got != FrameBuilding {
		t.Errorf("State() = %v, want Building", got)
	}
	if f.Width() != 320 || f.Height() != 200 {
		t.Errorf("size = %dx%d, want 320x200", f.Width(), f.Height())
	}
	if f.maxBytes != DefaultMaxBufferSize {
		t.Errorf("maxBytes = %d, want DefaultMaxBufferSize", f.maxBytes)
	}
	if f.reorder {
		t.Error("reorder enabled by default, want disabled")
	}
}

func TestFrameOptionsIgnoreInvalid(t *testing.T) {
	f, _, _ := newTestFrame(t, WithMaxBufferSize(0), WithCapacity(-1))

	if f.maxBytes != DefaultMaxBufferSize {
		t.Errorf("maxBytes = %d, want DefaultMaxBufferSize", f.maxBytes)
	}
	submitN(t, f, 1, 1)
}

func TestFrameStateGuards(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(f *Frame, b Backend)
		state   FrameState
	}{
		{
			name:    "finalized",
			arrange: func(f *Frame, b Backend) { _ = f.Finalize() },
			state:   FrameFinalized,
		},
		{
			name: "executed",
			arrange: func(f *Frame, b Backend) {
				_ = f.Finalize()
				_, _ = f.Execute(b)
			},
			state: FrameExecuted,
		},
		{
			name:    "discarded",
			arrange: func(f *Frame, b Backend) { f.Discard() },
			state:   FrameDiscarded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, backend := newTestFrame(t)
			tt.arrange(f, backend)
			if got := f.State(); got != tt.state {
				t.Fatalf("State() = %v, want %v", got, tt.state)
			}

			if err := f.Submit(testSprite(1, 0)); !errors.Is(err, ErrInvalidState) {
				t.Errorf("Submit error = %v, want ErrInvalidState", err)
			}
			if _, err := f.RegisterTransform(Identity()); !errors.Is(err, ErrInvalidState) {
				t.Errorf("RegisterTransform error = %v, want ErrInvalidState", err)
			}
			if err := f.Finalize(); !errors.Is(err, ErrInvalidState) {
				t.Errorf("Finalize error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestFrameStateGuardMessage(t *testing.T) {
	f, _, _ := newTestFrame(t)
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	err := f.Submit(testSprite(1, 0))
	if err == nil {
		t.Fatal("Submit succeeded on a finalized frame")
	}
	want := "Submit requires Building, frame is Finalized"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should contain %q", err, want)
	}
}

func TestSubmitUnknownTexture(t *testing.T) {
	f, _, _ := newTestFrame(t)

	submitN(t, f, 1, 2)
	if err := f.Submit(testSprite(99, 0)); !errors.Is(err, ErrUnknownTexture) {
		t.Fatalf("Submit(unknown) error = %v, want ErrUnknownTexture", err)
	}

	// The dropped sprite must not poison the frame.
	if got := f.State(); got != FrameBuilding {
		t.Fatalf("State() after drop = %v, want Building", got)
	}
	submitN(t, f, 1, 1)

	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	stats := f.Stats()
	if stats.Sprites != 3 {
		t.Errorf("Sprites = %d, want 3 (dropped sprite excluded)", stats.Sprites)
	}
	if stats.Batches != 1 {
		t.Errorf("Batches = %d, want 1", stats.Batches)
	}
	if got := f.Batches()[0].Count; got != 3*VerticesPerSprite {
		t.Errorf("batch Count = %d, want %d", got, 3*VerticesPerSprite)
	}
}

func TestSubmitUnknownTransform(t *testing.T) {
	f, _, _ := newTestFrame(t)

	s := testSprite(1, 0)
	s.Group = 1
	if err := f.Submit(s); !errors.Is(err, ErrUnknownTransform) {
		t.Fatalf("Submit error = %v, want ErrUnknownTransform", err)
	}
	if got := f.State(); got != FrameBuilding {
		t.Fatalf("State() after drop = %v, want Building", got)
	}

	id, err := f.RegisterTransform(Scaling(2, 2))
	if err != nil {
		t.Fatalf("RegisterTransform failed: %v", err)
	}
	s.Group = id
	if err := f.Submit(s); err != nil {
		t.Fatalf("Submit with registered transform failed: %v", err)
	}
}

func TestSubmitOverflowAbortsFrame(t *testing.T) {
	// Room for exactly one sprite.
	f, _, _ := newTestFrame(t, WithMaxBufferSize(bytesPerSprite))

	if err := f.Submit(testSprite(1, 0)); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	err := f.Submit(testSprite(1, 0))
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("second Submit error = %v, want ErrBufferOverflow", err)
	}
	if got := f.State(); got != FrameDiscarded {
		t.Errorf("State() after overflow = %v, want Discarded", got)
	}

	// Reset starts a fresh cycle on the same allocations.
	f.Reset(320, 200)
	if got := f.State(); got != FrameBuilding {
		t.Fatalf("State() after Reset = %v, want Building", got)
	}
	submitN(t, f, 1, 1)
}

func TestFinalizeEmptyFrame(t *testing.T) {
	f, _, _ := newTestFrame(t)

	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if got := len(f.Batches()); got != 0 {
		t.Errorf("Batches() length = %d, want 0", got)
	}
	stats := f.Stats()
	if stats.Sprites != 0 || stats.Batches != 0 || stats.VertexBytes != 0 {
		t.Errorf("Stats() = %+v, want all zero", stats)
	}
}

func TestFrameBatchRuns(t *testing.T) {
	f, _, _ := newTestFrame(t)

	// Three sprites of texture 1, two of texture 2, one more of texture 1.
	submitN(t, f, 1, 3)
	submitN(t, f, 2, 2)
	submitN(t, f, 1, 1)

	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	want := []struct {
		texture TextureID
		first   uint32
		count   uint32
	}{
		{1, 0, 18},
		{2, 18, 12},
		{1, 30, 6},
	}
	batches := f.Batches()
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d", len(batches), len(want))
	}
	for i, w := range want {
		b := batches[i]
		if b.Texture != w.texture || b.First != w.first || b.Count != w.count {
			t.Errorf("batch %d = {tex %d, first %d, count %d}, want {tex %d, first %d, count %d}",
				i, b.Texture, b.First, b.Count, w.texture, w.first, w.count)
		}
	}

	stats := f.Stats()
	if stats.Sprites != 6 || stats.Batches != 3 {
		t.Errorf("Stats() = %+v, want 6 sprites in 3 batches", stats)
	}
	if stats.VertexBytes != 6*bytesPerSprite {
		t.Errorf("VertexBytes = %d, want %d", stats.VertexBytes, 6*bytesPerSprite)
	}
}

func TestFrameBatchAlternation(t *testing.T) {
	f, _, _ := newTestFrame(t)

	const n = 16
	for i := 0; i < n; i++ {
		submitN(t, f, TextureID(1+i%2), 1)
	}
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	batches := f.Batches()
	if len(batches) != n {
		t.Fatalf("got %d batches for full alternation, want %d", len(batches), n)
	}
	for i, b := range batches {
		if b.Count != VerticesPerSprite {
			t.Errorf("batch %d Count = %d, want %d", i, b.Count, VerticesPerSprite)
		}
	}
}

func TestFrameBatchSingleRun(t *testing.T) {
	f, _, _ := newTestFrame(t)

	submitN(t, f, 2, 5)
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	batches := f.Batches()
	if len(batches) != 1 {
		t.Fatalf("got %d batches for one texture, want 1", len(batches))
	}
	if batches[0].First != 0 || batches[0].Count != 5*VerticesPerSprite {
		t.Errorf("batch = {first %d, count %d}, want {first 0, count %d}",
			batches[0].First, batches[0].Count, 5*VerticesPerSprite)
	}
}

func TestFrameBatchRangesContiguous(t *testing.T) {
	f, _, _ := newTestFrame(t)

	submitN(t, f, 1, 2)
	submitN(t, f, 2, 3)
	submitN(t, f, 1, 1)
	submitN(t, f, 2, 4)
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	// Concatenated batch ranges must cover the submitted vertices exactly,
	// in submission order.
	var next uint32
	for i, b := range f.Batches() {
		if b.First != next {
			t.Errorf("batch %d First = %d, want %d", i, b.First, next)
		}
		if b.Count == 0 || b.Count%VerticesPerSprite != 0 {
			t.Errorf("batch %d Count = %d, want nonzero multiple of %d",
				i, b.Count, VerticesPerSprite)
		}
		next = b.First + b.Count
	}
	if want := uint32(10 * VerticesPerSprite); next != want {
		t.Errorf("ranges end at %d, want %d", next, want)
	}
}

func TestFrameGroupSplit(t *testing.T) {
	f, _, _ := newTestFrame(t)

	id, err := f.RegisterTransform(Translation(5, 9))
	if err != nil {
		t.Fatalf("RegisterTransform failed: %v", err)
	}

	// Same texture throughout; the group change alone splits the run.
	submitN(t, f, 1, 2)
	s := testSprite(1, 0)
	s.Group = id
	if err := f.Submit(s); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	batches := f.Batches()
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0].Group != 0 || batches[1].Group != id {
		t.Errorf("batch groups = %d, %d, want 0, %d", batches[0].Group, batches[1].Group, id)
	}

	// The grouped batch bakes the transform's matrix; the ungrouped batch
	// bakes identity. Column-major translation lives at elements 12 and 13,
	// after the 16-byte target header.
	const matOff = 16
	if got := f32At(batches[0].uniforms, matOff+12*4); got != 0 {
		t.Errorf("ungrouped batch tx = %v, want 0", got)
	}
	if got := f32At(batches[1].uniforms, matOff+12*4); got != 5 {
		t.Errorf("grouped batch tx = %v, want 5", got)
	}
	if got := f32At(batches[1].uniforms, matOff+13*4); got != 9 {
		t.Errorf("grouped batch ty = %v, want 9", got)
	}
	// Both blocks carry the target size.
	for i, b := range batches {
		if got := f32At(b.uniforms, 0); got != 320 {
			t.Errorf("batch %d target width = %v, want 320", i, got)
		}
		if got := f32At(b.uniforms, 4); got != 200 {
			t.Errorf("batch %d target height = %v, want 200", i, got)
		}
	}
}

func TestFrameReorder(t *testing.T) {
	f, _, _ := newTestFrame(t, WithReorder())

	// Interleave two textures with distinct x positions so the permutation
	// is visible in the vertex data.
	for i, tex := range []TextureID{1, 2, 1, 2} {
		if err := f.Submit(testSprite(tex, float32(i*10))); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	batches := f.Batches()
	if len(batches) != 2 {
		t.Fatalf("got %d batches with reorder, want 2", len(batches))
	}
	if batches[0].Texture != 1 || batches[1].Texture != 2 {
		t.Errorf("batch textures = %d, %d, want 1, 2", batches[0].Texture, batches[1].Texture)
	}
	for i, b := range batches {
		if b.Count != 2*VerticesPerSprite {
			t.Errorf("batch %d Count = %d, want %d", i, b.Count, 2*VerticesPerSprite)
		}
	}

	// Vertex blocks must follow the sorted order, stable within a texture:
	// the first vertex of each block carries its sprite's x translation.
	wantX := []float32{0, 20, 10, 30}
	for i, want := range wantX {
		if got := f32At(f.verts, i*bytesPerSprite); got != want {
			t.Errorf("sprite block %d x = %v, want %v", i, got, want)
		}
	}
}

func TestFrameReorderOffByDefault(t *testing.T) {
	f, _, _ := newTestFrame(t)

	for i, tex := range []TextureID{1, 2, 1, 2} {
		if err := f.Submit(testSprite(tex, float32(i*10))); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if got := len(f.Batches()); got != 4 {
		t.Errorf("got %d batches without reorder, want 4", got)
	}
}

func TestFrameGrowth(t *testing.T) {
	f, _, _ := newTestFrame(t, WithCapacity(1))

	submitN(t, f, 1, 9)
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if got := f.Stats().VertexBytes; got != 9*bytesPerSprite {
		t.Errorf("VertexBytes = %d, want %d", got, 9*bytesPerSprite)
	}
	// Growth must not corrupt earlier blocks: every sprite wrote the same
	// quad, so every block's first vertex matches the first block's.
	first := f32At(f.verts, 12) // v0 u coordinate
	for i := 1; i < 9; i++ {
		if got := f32At(f.verts, i*bytesPerSprite+12); got != first {
			t.Errorf("block %d u = %v, want %v", i, got, first)
		}
	}
}

func TestFrameReset(t *testing.T) {
	f, _, backend := newTestFrame(t)

	submitN(t, f, 1, 3)
	if err := f.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if _, err := f.Execute(backend); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	f.Reset(640, 480)
	if got := f.State(); got != FrameBuilding {
		t.Fatalf("State() after Reset = %v, want Building", got)
	}
	if f.Width() != 640 || f.Height() != 480 {
		t.Errorf("size after Reset = %dx%d, want 640x480", f.Width(), f.Height())
	}
	if got := len(f.Batches()); got != 0 {
		t.Errorf("Batches() length after Reset = %d, want 0", got)
	}
	if got := f.Stats(); got != (FrameStats{}) {
		t.Errorf("Stats() after Reset = %+v, want zero", got)
	}

	// The next cycle reflects only its own submissions.
	submitN(t, f, 2, 1)
	if err := f.Finalize(); err != nil {
		t.Fatalf("second Finalize failed: %v", err)
	}
	batches := f.Batches()
	if len(batches) != 1 || batches[0].Texture != 2 || batches[0].Count != VerticesPerSprite {
		t.Errorf("second cycle batches = %+v, want one batch of texture 2", batches)
	}
}

func TestFrameDiscardIdempotent(t *testing.T) {
	f, _, _ := newTestFrame(t)

	submitN(t, f, 1, 1)
	f.Discard()
	f.Discard()
	if got := f.State(); got != FrameDiscarded {
		t.Errorf("State() = %v, want Discarded", got)
	}
	if err := f.Submit(testSprite(1, 0)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit after Discard error = %v, want ErrInvalidState", err)
	}
}

func TestRegisterTransformIDs(t *testing.T) {
	f, _, _ := newTestFrame(t)

	a, err := f.RegisterTransform(Translation(1, 0))
	if err != nil {
		t.Fatalf("RegisterTransform failed: %v", err)
	}
	b, err := f.RegisterTransform(Translation(2, 0))
	if err != nil {
		t.Fatalf("RegisterTransform failed: %v", err)
	}
	if a != 1 || b != 2 {
		t.Errorf("transform ids = %d, %d, want 1, 2", a, b)
	}
	if !a.IsValid() {
		t.Error("registered transform id reports invalid")
	}
	if TransformID(0).IsValid() {
		t.Error("zero transform id reports valid")
	}
}
