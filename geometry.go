package sprite

import (
	"encoding/binary"
	"math"
)

// VertexStride is the byte stride per vertex in the sprite pipeline.
// Layout per vertex:
//
//	position   (vec3<f32>) = 12 bytes (location 0)
//	tex_coords (vec2<f32>) = 8 bytes  (location 1)
//	tint       (vec4<f32>) = 16 bytes (location 2)
//
// Total = 36 bytes per vertex.
const VertexStride = 36

// VerticesPerSprite is the number of vertices one sprite expands to:
// two triangles forming the quad, without an index buffer.
const VerticesPerSprite = 6

// bytesPerSprite is one sprite's span in the staged vertex buffer.
const bytesPerSprite = VertexStride * VerticesPerSprite

// writeSpriteVertices expands one sprite into six vertices at the start of
// buf, which must have room for bytesPerSprite bytes.
//
// The quad corners come from applying the sprite transform to the corners
// of its source rectangle, keeping tex coords in pixel units:
//
//	v0 = T(0, 0) → (src.Min.X, src.Min.Y)
//	v1 = T(0, h) → (src.Min.X, src.Max.Y)
//	v2 = T(w, 0) → (src.Max.X, src.Min.Y)
//	v3 = T(w, h) → (src.Max.X, src.Max.Y)
//
// emitted as the triangles (v0, v1, v2) and (v1, v2, v3), the classic quad
// index pattern expanded inline. Winding is irrelevant: the pipeline draws
// with culling disabled.
func writeSpriteVertices(buf []byte, s *Sprite) {
	w := float32(s.Src.Dx())
	h := float32(s.Src.Dy())

	x0, y0 := s.Transform.Apply(0, 0)
	x1, y1 := s.Transform.Apply(0, h)
	x2, y2 := s.Transform.Apply(w, 0)
	x3, y3 := s.Transform.Apply(w, h)

	u0 := float32(s.Src.Min.X)
	v0 := float32(s.Src.Min.Y)
	u1 := float32(s.Src.Max.X)
	v1 := float32(s.Src.Max.Y)

	tr, tg, tb, ta := tintComponents(s)

	type vert struct {
		x, y, u, v float32
	}
	verts := [VerticesPerSprite]vert{
		{x0, y0, u0, v0},
		{x1, y1, u0, v1},
		{x2, y2, u1, v0},
		{x1, y1, u0, v1},
		{x2, y2, u1, v0},
		{x3, y3, u1, v1},
	}

	offset := 0
	for _, v := range verts {
		writeSpriteVertex(buf[offset:], v.x, v.y, s.Z, v.u, v.v, tr, tg, tb, ta)
		offset += VertexStride
	}
}

// writeSpriteVertex writes a single vertex into the buffer at the current position.
func writeSpriteVertex(buf []byte, x, y, z, u, v, tr, tg, tb, ta float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(z))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(u))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(tr))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(tg))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(tb))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(ta))
}

// tintComponents converts the sprite's 8-bit tint to [0,1] float channels.
func tintComponents(s *Sprite) (r, g, b, a float32) {
	return float32(s.Tint.R) / 255,
		float32(s.Tint.G) / 255,
		float32(s.Tint.B) / 255,
		float32(s.Tint.A) / 255
}
