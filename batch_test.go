package sprite

import "testing"

// keysFor builds one spriteKey per texture id, in order, with no group
// transforms.
func keysFor(ids ...TextureID) []spriteKey {
	keys := make([]spriteKey, len(ids))
	for i, id := range ids {
		keys[i] = spriteKey{texture: id}
	}
	return keys
}

func TestBatchRuns(t *testing.T) {
	tests := []struct {
		name string
		keys []spriteKey
		want []Batch
	}{
		{
			"empty stream",
			nil,
			nil,
		},
		{
			"single sprite",
			keysFor(1),
			[]Batch{{Texture: 1, First: 0, Count: 6}},
		},
		{
			"one run",
			keysFor(7, 7, 7, 7),
			[]Batch{{Texture: 7, First: 0, Count: 24}},
		},
		{
			"a3 b2 a1",
			keysFor(1, 1, 1, 2, 2, 1),
			[]Batch{
				{Texture: 1, First: 0, Count: 18},
				{Texture: 2, First: 18, Count: 12},
				{Texture: 1, First: 30, Count: 6},
			},
		},
		{
			"two runs",
			keysFor(1, 1, 2),
			[]Batch{
				{Texture: 1, First: 0, Count: 12},
				{Texture: 2, First: 12, Count: 6},
			},
		},
		{
			"transform split within one texture",
			[]spriteKey{
				{texture: 1},
				{texture: 1, group: 1},
				{texture: 1, group: 1},
				{texture: 1},
			},
			[]Batch{
				{Texture: 1, First: 0, Count: 6},
				{Texture: 1, Group: 1, First: 6, Count: 12},
				{Texture: 1, First: 18, Count: 6},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := batchRuns(tt.keys, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("batchRuns() produced %d batches, want %d", len(got), len(tt.want))
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Texture != w.Texture || g.Group != w.Group || g.First != w.First || g.Count != w.Count {
					t.Errorf("batch %d = {tex %d group %d range %d+%d}, want {tex %d group %d range %d+%d}",
						i, g.Texture, g.Group, g.First, g.Count,
						w.Texture, w.Group, w.First, w.Count)
				}
			}
		})
	}
}

// TestBatchRunsAlternation pins the documented worst case: N sprites
// alternating between two textures yield N batches, one per sprite. A lower
// count would mean a silent merge across an order-sensitive boundary.
func TestBatchRunsAlternation(t *testing.T) {
	const n = 64
	ids := make([]TextureID, n)
	for i := range ids {
		ids[i] = TextureID(1 + i%2)
	}
	got := batchRuns(keysFor(ids...), nil)
	if len(got) != n {
		t.Fatalf("alternating stream produced %d batches, want %d", len(got), n)
	}
	for i, b := range got {
		if b.Count != VerticesPerSprite {
			t.Errorf("batch %d spans %d vertices, want %d", i, b.Count, VerticesPerSprite)
		}
	}
}

// TestBatchRunsCoverage checks that concatenating the batch vertex ranges in
// batch order reproduces the submission stream exactly: contiguous from
// zero, no gaps, no overlaps, no loss.
func TestBatchRunsCoverage(t *testing.T) {
	tests := []struct {
		name string
		keys []spriteKey
	}{
		{"empty", nil},
		{"one run", keysFor(3, 3, 3)},
		{"many runs", keysFor(1, 2, 2, 3, 3, 3, 1, 1, 2)},
		{"alternating", keysFor(1, 2, 1, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := batchRuns(tt.keys, nil)
			var next uint32
			for i, b := range batches {
				if b.First != next {
					t.Errorf("batch %d starts at vertex %d, want %d", i, b.First, next)
				}
				if b.Count == 0 || b.Count%VerticesPerSprite != 0 {
					t.Errorf("batch %d has vertex count %d, want positive multiple of %d",
						i, b.Count, VerticesPerSprite)
				}
				next = b.First + b.Count
			}
			if want := uint32(len(tt.keys) * VerticesPerSprite); next != want {
				t.Errorf("batches cover %d vertices, want %d", next, want)
			}
		})
	}
}

func TestBatchRunsReusesDst(t *testing.T) {
	dst := make([]Batch, 0, 8)
	got := batchRuns(keysFor(1, 2, 3), dst[:0])
	if len(got) != 3 {
		t.Fatalf("batchRuns() produced %d batches, want 3", len(got))
	}
	if &got[0] != &dst[:1][0] {
		t.Error("batchRuns() reallocated despite sufficient dst capacity")
	}
}

func TestSortKeyPerm(t *testing.T) {
	tests := []struct {
		name string
		keys []spriteKey
		want []int
	}{
		{"sorted input", keysFor(1, 1, 2), []int{0, 1, 2}},
		{"reverse", keysFor(3, 2, 1), []int{2, 1, 0}},
		{"interleaved stable", keysFor(2, 1, 2, 1), []int{1, 3, 0, 2}},
		{
			"texture before group",
			[]spriteKey{
				{texture: 2},
				{texture: 1, group: 5},
				{texture: 1},
			},
			[]int{2, 1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sortKeyPerm(tt.keys, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("perm length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("perm = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
