package sprite

import "sort"

// spriteKey is the bind state one sprite's draw call depends on. Two
// consecutive sprites with equal keys can share a draw call; any other
// merge would either switch textures mid-draw or reorder blending.
type spriteKey struct {
	texture TextureID
	group   TransformID
	binding TextureBinding
}

// Batch is a maximal run of consecutive submitted sprites sharing one
// texture and one group transform, rendered with a single draw call.
// Ordering between batches equals the submission order of their first
// sprites, which preserves painter's order across the whole frame.
type Batch struct {
	// Texture is the batch's one texture.
	Texture TextureID

	// Group is the batch's group transform; zero means none.
	Group TransformID

	// First is the batch's first vertex in the frame's combined buffer.
	First uint32

	// Count is the batch's vertex count.
	Count uint32

	// binding and uniforms are resolved when the frame finalizes, so
	// executing a frame never touches the registry.
	binding  TextureBinding
	uniforms []byte
}

// batchRuns scans the per-sprite keys left to right and appends one Batch
// per maximal run of equal keys to dst, returning the extended slice.
//
// The scan keeps a current key and a running range start: an equal key
// extends the run, a different key closes the current batch and opens a new
// one, and the final batch closes at stream end. This is O(n) in sprite
// count with O(1) auxiliary state and no sorting, and the resulting batch
// count equals the number of maximal same-key runs: the minimum number of
// draw calls achievable without reordering sprites across a blend-order
// boundary.
//
// The flip side is a documented performance contract, not a bug: sprites
// interleaving two textures one by one degrade to one batch per sprite.
// Callers group their submissions by texture when overlap allows, or opt in
// to reordering via WithReorder.
func batchRuns(keys []spriteKey, dst []Batch) []Batch {
	if len(keys) == 0 {
		return dst
	}

	cur := keys[0]
	start := 0
	for i := 1; i < len(keys); i++ {
		if keys[i].texture == cur.texture && keys[i].group == cur.group {
			continue
		}
		dst = append(dst, Batch{
			Texture: cur.texture,
			Group:   cur.group,
			First:   uint32(start * VerticesPerSprite),
			Count:   uint32((i - start) * VerticesPerSprite),
			binding: cur.binding,
		})
		cur = keys[i]
		start = i
	}
	dst = append(dst, Batch{
		Texture: cur.texture,
		Group:   cur.group,
		First:   uint32(start * VerticesPerSprite),
		Count:   uint32((len(keys) - start) * VerticesPerSprite),
		binding: cur.binding,
	})
	return dst
}

// sortKeyPerm fills perm with a stable ordering of the sprites by
// (texture, group) key and returns it. Stability keeps equal-key sprites in
// submission order, so reordering only ever moves sprites across key
// boundaries, which is exactly what the caller asserts is safe when
// requesting reorder mode.
func sortKeyPerm(keys []spriteKey, perm []int) []int {
	perm = perm[:0]
	for i := range keys {
		perm = append(perm, i)
	}
	sort.SliceStable(perm, func(i, j int) bool {
		a, b := keys[perm[i]], keys[perm[j]]
		if a.texture != b.texture {
			return a.texture < b.texture
		}
		return a.group < b.group
	})
	return perm
}
