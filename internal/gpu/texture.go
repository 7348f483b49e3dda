//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite"
)

// textureBinding is the GPU-side state baked for one registered texture:
// the sampled texture, its view, the 16-byte texture uniform buffer, and the
// bind group tying all three to group 0 of the sprite pipeline.
type textureBinding struct {
	device hal.Device

	texture hal.Texture
	// borrowed textures were handed in by the caller and are not destroyed
	// on release.
	borrowed   bool
	view       hal.TextureView
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	released atomic.Bool
}

// Release destroys the binding's GPU resources. Idempotent; concurrent calls
// release exactly once.
func (tb *textureBinding) Release() {
	if tb.released.Swap(true) {
		return
	}
	if tb.bindGroup != nil {
		tb.device.DestroyBindGroup(tb.bindGroup)
		tb.bindGroup = nil
	}
	if tb.uniformBuf != nil {
		tb.device.DestroyBuffer(tb.uniformBuf)
		tb.uniformBuf = nil
	}
	if tb.view != nil {
		tb.device.DestroyTextureView(tb.view)
		tb.view = nil
	}
	if tb.texture != nil {
		if !tb.borrowed {
			tb.device.DestroyTexture(tb.texture)
		}
		tb.texture = nil
	}
}

// CreateTextureBinding builds the GPU binding for one texture.
//
// The texture argument is either an image.Image, uploaded to a new GPU
// texture owned by the binding, or an existing hal.Texture, which stays
// owned by the caller. The size argument declares the coordinate space of
// sprite source rectangles; image inputs are uploaded at their own
// resolution (downscaled if they exceed the device texture limit).
func (b *Backend) CreateTextureBinding(texture any, size image.Point, mask bool) (sprite.TextureBinding, error) {
	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	tb := &textureBinding{device: b.device}

	switch t := texture.(type) {
	case image.Image:
		rgba := clampToMaxDim(toRGBA(t))
		tex, err := b.uploadTexture(rgba)
		if err != nil {
			return nil, err
		}
		tb.texture = tex
	case hal.Texture:
		tb.texture = t
		tb.borrowed = true
	case nil:
		return nil, fmt.Errorf("texture is nil")
	default:
		return nil, fmt.Errorf("unsupported texture type %T", texture)
	}

	if err := b.bindTexture(tb, size, mask); err != nil {
		tb.Release()
		return nil, err
	}
	return tb, nil
}

// uploadTexture creates a sampled RGBA8 texture and writes the pixels.
func (b *Backend) uploadTexture(rgba *image.RGBA) (hal.Texture, error) {
	w := uint32(rgba.Bounds().Dx()) //nolint:gosec // clamped to maxTextureDim
	h := uint32(rgba.Bounds().Dy()) //nolint:gosec // clamped to maxTextureDim

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}

	b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
		},
		tightPixels(rgba),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return tex, nil
}

// bindTexture creates the view, uniform buffer, and bind group for tb.
// On error the caller releases tb, which destroys whatever was created.
func (b *Backend) bindTexture(tb *textureBinding, size image.Point, mask bool) error {
	view, err := b.device.CreateTextureView(tb.texture, &hal.TextureViewDescriptor{
		Label:         "sprite_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create texture view: %w", err)
	}
	tb.view = view

	uniformBuf, err := b.createAndUploadBuffer("sprite_texture_uniform",
		sprite.TextureUniformBytes(size, mask),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	tb.uniformBuf = uniformBuf

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sprite_texture_bind",
		Layout: b.pipeline.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
			{Binding: 1, Resource: gputypes.SamplerBinding{
				Sampler: b.pipeline.sampler.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: sprite.TextureUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture bind group: %w", err)
	}
	tb.bindGroup = bindGroup

	return nil
}
