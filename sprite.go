package sprite

import (
	"image"
	"image/color"
)

// TextureID identifies a registered texture. Ids are chosen by the caller
// (typically the asset system) and registered once per unique texture;
// zero is reserved as the invalid id.
type TextureID uint32

// IsValid reports whether the id is usable (non-zero).
func (id TextureID) IsValid() bool {
	return id != 0
}

// TransformID references a group transform registered on a frame.
// Zero means "no group transform" and is always valid to use on a sprite.
type TransformID uint32

// IsValid reports whether the id references a registered transform.
func (id TransformID) IsValid() bool {
	return id != 0
}

// Sprite is one draw request: a rectangular region of a texture placed in
// target space. Sprites are value types, owned by the caller until submitted
// and immutable once consumed.
//
// Submission order is draw order: later sprites draw over earlier ones.
// Consecutive sprites sharing Texture and Group collapse into a single
// draw call.
type Sprite struct {
	// Texture is the registered texture to sample from.
	Texture TextureID

	// Src is the source rectangle in texture pixel space. Texture
	// coordinates stay in pixel units on the CPU side; the shader
	// normalizes them by the texture size, so geometry survives a
	// texture swap without rebuilding.
	Src image.Rectangle

	// Z fills the vertex z component, for layering inside a batch.
	// Most callers leave it zero and rely on submission order.
	Z float32

	// Transform places the Src-sized quad in target space. The quad
	// corners (0,0)..(w,h) are transformed CPU-side. Use Translation
	// for plain placement; the zero value collapses the quad.
	Transform Affine

	// Tint multiplies the sampled color (straight alpha). For mask
	// textures it supplies RGB while the red channel supplies alpha.
	// Use opaque white for no tinting.
	Tint color.RGBA

	// Group optionally references a frame transform applied uniformly
	// to every sprite of a batch, e.g. a camera or group placement.
	// Zero means no group transform.
	Group TransformID
}

// TextureInfo describes a registered texture.
type TextureInfo struct {
	// ID is the caller-chosen texture id.
	ID TextureID

	// Size is the texture size in pixels.
	Size image.Point

	// Mask marks a mask texture: the sampled red channel is used as
	// alpha and the sprite tint supplies RGB.
	Mask bool

	// Binding is the GPU-side binding for the texture, built once at
	// registration and owned by the registry.
	Binding TextureBinding
}
