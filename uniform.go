package sprite

import (
	"encoding/binary"
	"image"
	"math"
)

// Uniform block sizes. The layouts below must match the shader structs
// bit-for-bit; all fields are little-endian.
const (
	// TextureUniformSize is the byte size of the per-texture block.
	// Layout: size (vec2<f32>) + is_mask (u32) + padding (u32) = 16 bytes.
	TextureUniformSize = 16

	// TargetUniformSize is the byte size of the bare target block.
	// Layout: size (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
	TargetUniformSize = 16

	// GroupUniformSize is the byte size of the per-batch block: the
	// target block extended with a column-major mat4x4<f32> group
	// transform. 16 + 64 = 80 bytes.
	GroupUniformSize = 80
)

// TextureUniformBytes builds the per-texture uniform block. It is uploaded
// once per texture at registration, inside the texture's bind group, never
// per frame.
func TextureUniformBytes(size image.Point, mask bool) []byte {
	buf := make([]byte, TextureUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(size.X)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(size.Y)))
	if mask {
		binary.LittleEndian.PutUint32(buf[8:12], 1)
	}
	// Padding bytes 12..15 remain zero.
	return buf
}

// TargetUniformBytes builds the bare target block holding the render target
// size in pixels.
func TargetUniformBytes(width, height int) []byte {
	buf := make([]byte, TargetUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(height)))
	// Padding bytes 8..15 remain zero.
	return buf
}

// GroupUniformBytes builds the per-batch uniform block: target size followed
// by the column-major 4x4 group transform. Batches without a group transform
// carry the identity matrix.
func GroupUniformBytes(width, height int, m [16]float32) []byte {
	buf := make([]byte, GroupUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(height)))
	// Padding bytes 8..15 remain zero.
	for i, v := range m {
		off := TargetUniformSize + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	return buf
}
