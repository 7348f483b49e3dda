//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite"
)

// frameTimeout bounds the fence wait after frame submission.
const frameTimeout = 5 * time.Second

// initialVertexCap is the starting size of the shared vertex buffer.
const initialVertexCap = 64 << 10

// Backend renders finalized sprite frames through gogpu/wgpu. It implements
// sprite.Backend and sprite.ImageBackend.
//
// A Backend owns one offscreen render target, one growable vertex buffer,
// and a pool of per-slot group uniform buffers, all reused across frames.
// It is not safe for concurrent use.
type Backend struct {
	// GPU resources. instance is nil when the device is externally owned.
	instance       hal.Instance
	device         hal.Device
	queue          hal.Queue
	externalDevice bool

	pipeline *spritePipeline

	// Offscreen render target, recreated when the frame size changes.
	targetTex  hal.Texture
	targetView hal.TextureView
	targetW    uint32
	targetH    uint32

	// Shared vertex buffer, grown by doubling and never shrunk.
	vertexBuf hal.Buffer
	vertexCap uint64

	// Per-slot group uniform buffers and bind groups. Slot n serves the
	// n-th batch of a frame; buffers persist so steady-state frames
	// allocate nothing.
	groupSlots []groupSlot

	// In-flight frame state between BeginFrame and EndFrame.
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder

	closed bool
}

// groupSlot holds one batch's target uniform buffer and its bind group.
type groupSlot struct {
	buf       hal.Buffer
	bindGroup hal.BindGroup
}

var (
	_ sprite.Backend      = (*Backend)(nil)
	_ sprite.ImageBackend = (*Backend)(nil)
)

// New creates a Backend with its own standalone GPU device.
// Close destroys the device along with the backend's resources.
func New() (*Backend, error) {
	instance, device, queue, adapterName, err := openDevice()
	if err != nil {
		return nil, err
	}

	b := &Backend{instance: instance, device: device, queue: queue}
	pipeline, err := newSpritePipeline(device)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	b.pipeline = pipeline

	slogger().Info("sprite backend initialized", "adapter", adapterName)
	return b, nil
}

// NewWithDevice creates a Backend on caller-owned HAL handles.
// Close releases only the resources this backend created.
func NewWithDevice(device hal.Device, queue hal.Queue) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("nil device or queue")
	}

	b := &Backend{device: device, queue: queue, externalDevice: true}
	pipeline, err := newSpritePipeline(device)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	b.pipeline = pipeline

	slogger().Debug("sprite backend using shared GPU device")
	return b, nil
}

// NewWithProvider creates a Backend on a shared GPU device from an external
// provider (for example a gogpu window). The provider must implement
// HalDevice() any and HalQueue() any.
func NewWithProvider(provider any) (*Backend, error) {
	device, queue, err := deviceFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return NewWithDevice(device, queue)
}

// SetLogger routes this package's logging to l.
// Called by sprite.NewBackend when the package logger propagates.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// BeginFrame opens the render pass for one frame, clearing the target to
// transparent black. The target texture is recreated if the size changed.
func (b *Backend) BeginFrame(width, height int) error {
	if b.closed {
		return fmt.Errorf("backend is closed")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if b.encoder != nil {
		// A previous frame aborted mid-encode; drop its commands.
		b.abortFrame()
	}

	if err := b.ensureTarget(uint32(width), uint32(height)); err != nil { //nolint:gosec // dimensions validated positive
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	b.encoder = encoder

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       b.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	b.rp = rp
	rp.SetPipeline(b.pipeline.pipeline)

	return nil
}

// UploadVertices stages the frame's vertex bytes and binds the vertex
// buffer to the open render pass. The buffer grows by doubling when the
// data outgrows it.
func (b *Backend) UploadVertices(data []byte) error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	if len(data) == 0 {
		return nil
	}

	if err := b.ensureVertexCapacity(uint64(len(data))); err != nil {
		return err
	}
	b.queue.WriteBuffer(b.vertexBuf, 0, data)
	b.rp.SetVertexBuffer(0, b.vertexBuf, 0)
	return nil
}

// UploadGroupUniforms writes one batch's uniform block into the slot's
// buffer, creating the buffer and its bind group on first use. Slots are
// written before any encoded draw executes, so each batch needs its own.
func (b *Backend) UploadGroupUniforms(slot int, data []byte) error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	if slot < 0 {
		return fmt.Errorf("negative uniform slot %d", slot)
	}
	if len(data) != sprite.GroupUniformSize {
		return fmt.Errorf("group uniform block must be %d bytes, got %d",
			sprite.GroupUniformSize, len(data))
	}

	for len(b.groupSlots) <= slot {
		b.groupSlots = append(b.groupSlots, groupSlot{})
	}
	s := &b.groupSlots[slot]

	if s.buf == nil {
		buf, err := b.createAndUploadBuffer("sprite_group_uniform", data,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "sprite_group_bind",
			Layout: b.pipeline.groupLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(), Offset: 0, Size: sprite.GroupUniformSize,
				}},
			},
		})
		if err != nil {
			b.device.DestroyBuffer(buf)
			return fmt.Errorf("create group bind group: %w", err)
		}
		s.buf = buf
		s.bindGroup = bindGroup
		return nil
	}

	b.queue.WriteBuffer(s.buf, 0, data)
	return nil
}

// BindTexture binds a texture's bind group at group 0.
func (b *Backend) BindTexture(binding sprite.TextureBinding) error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	tb, ok := binding.(*textureBinding)
	if !ok {
		return fmt.Errorf("foreign texture binding %T", binding)
	}
	if tb.released.Load() {
		return fmt.Errorf("texture binding was released")
	}
	b.rp.SetBindGroup(0, tb.bindGroup, nil)
	return nil
}

// BindGroupUniforms binds a slot's uniform bind group at group 1.
// The slot must have been written by UploadGroupUniforms this frame.
func (b *Backend) BindGroupUniforms(slot int) error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	if slot < 0 || slot >= len(b.groupSlots) || b.groupSlots[slot].bindGroup == nil {
		return fmt.Errorf("uniform slot %d not uploaded", slot)
	}
	b.rp.SetBindGroup(1, b.groupSlots[slot].bindGroup, nil)
	return nil
}

// Draw records one batch's vertex range.
func (b *Backend) Draw(first, count uint32) error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	b.rp.Draw(count, 1, first, 0)
	return nil
}

// EndFrame closes the render pass, submits the frame, and waits for the GPU
// to finish. After EndFrame returns the target texture holds the frame.
func (b *Backend) EndFrame() error {
	if b.rp == nil {
		return fmt.Errorf("no active frame")
	}
	b.rp.End()
	b.rp = nil

	cmdBuf, err := b.encoder.EndEncoding()
	b.encoder = nil
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, frameTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// Image reads the rendered target back into an *image.RGBA.
//
// The copy goes through a staging buffer with rows padded to the 256-byte
// copy pitch; padding is stripped on the CPU. Call after the frame executed.
func (b *Backend) Image() (*image.RGBA, error) {
	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}
	if b.targetTex == nil {
		return nil, fmt.Errorf("no rendered frame")
	}
	if b.encoder != nil {
		return nil, fmt.Errorf("frame still encoding")
	}

	w, h := b.targetW, b.targetH
	alignedRow := alignedBytesPerRow(int(w))
	stagingSize := uint64(alignedRow) * uint64(h)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The render pass left the target in COLOR_ATTACHMENT layout;
	// CopyTextureToBuffer requires TRANSFER_SRC. Transition explicitly and
	// back again so the next frame's pass finds the expected layout.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	encoder.CopyTextureToBuffer(b.targetTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(alignedRow), //nolint:gosec // bounded by maxTextureDim
			RowsPerImage: h,
		},
		TextureBase: hal.ImageCopyTexture{Texture: b.targetTex, MipLevel: 0},
		Size:        hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, frameTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	return stripRowPadding(readback, int(w), int(h), alignedRow), nil
}

// Close releases all backend resources. Externally owned devices are left
// untouched. Safe to call multiple times.
func (b *Backend) Close() {
	if b.closed {
		return
	}
	b.closed = true

	b.abortFrame()

	for i := range b.groupSlots {
		if b.groupSlots[i].bindGroup != nil {
			b.device.DestroyBindGroup(b.groupSlots[i].bindGroup)
		}
		if b.groupSlots[i].buf != nil {
			b.device.DestroyBuffer(b.groupSlots[i].buf)
		}
	}
	b.groupSlots = nil

	if b.vertexBuf != nil {
		b.device.DestroyBuffer(b.vertexBuf)
		b.vertexBuf = nil
		b.vertexCap = 0
	}

	b.destroyTarget()

	if b.pipeline != nil {
		b.pipeline.Destroy()
		b.pipeline = nil
	}

	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil

	slogger().Debug("sprite backend closed")
}

// abortFrame drops any in-flight encoding without submitting.
func (b *Backend) abortFrame() {
	if b.rp != nil {
		b.rp.End()
		b.rp = nil
	}
	if b.encoder != nil {
		b.encoder.DiscardEncoding()
		b.encoder = nil
	}
}

// ensureTarget creates or recreates the offscreen render target when the
// requested size differs from the current one.
func (b *Backend) ensureTarget(w, h uint32) error {
	if b.targetW == w && b.targetH == h && b.targetTex != nil {
		return nil
	}
	b.destroyTarget()

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	b.targetTex = tex

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sprite_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.destroyTarget()
		return fmt.Errorf("create target view: %w", err)
	}
	b.targetView = view

	b.targetW = w
	b.targetH = h
	return nil
}

// destroyTarget releases the render target and resets dimensions.
func (b *Backend) destroyTarget() {
	if b.targetView != nil {
		b.device.DestroyTextureView(b.targetView)
		b.targetView = nil
	}
	if b.targetTex != nil {
		b.device.DestroyTexture(b.targetTex)
		b.targetTex = nil
	}
	b.targetW = 0
	b.targetH = 0
}

// ensureVertexCapacity grows the vertex buffer to hold size bytes.
// Growth doubles from the current capacity; the buffer never shrinks.
// The previous frame's fence wait guarantees the old buffer is idle.
func (b *Backend) ensureVertexCapacity(size uint64) error {
	if b.vertexBuf != nil && b.vertexCap >= size {
		return nil
	}

	newCap := b.vertexCap
	if newCap == 0 {
		newCap = initialVertexCap
	}
	for newCap < size {
		newCap *= 2
	}

	if b.vertexBuf != nil {
		b.device.DestroyBuffer(b.vertexBuf)
		b.vertexBuf = nil
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_vertices",
		Size:  newCap,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.vertexCap = 0
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	b.vertexBuf = buf
	b.vertexCap = newCap

	slogger().Debug("vertex buffer grown", "capacity", newCap)
	return nil
}

// createAndUploadBuffer creates a buffer sized for data and writes data into
// it.
func (b *Backend) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}
