package sprite

import "fmt"

// Execute issues the frame's draw calls against a backend, in batch order:
// upload the combined vertex buffer once, then per batch upload its group
// uniform block, bind its texture, and draw its vertex range. The returned
// stats carry the draw-call and bind-switch counts.
//
// The texture rebind is skipped when a batch shares its predecessor's
// binding, which happens when consecutive batches split on a group
// transform change only. The uniform bind is per batch and never skipped.
//
// Execute is valid exactly once per finalize, moving the frame from
// Finalized to Executed. On a backend error, the walk stops, the error is
// returned wrapped with the failing operation, and the frame is discarded:
// partial GPU state is not worth retrying, and no operation here retries
// internally.
func (f *Frame) Execute(b Backend) (FrameStats, error) {
	if b == nil {
		return FrameStats{}, ErrNilBackend
	}
	if err := f.checkState(FrameFinalized, "Execute"); err != nil {
		return FrameStats{}, err
	}

	stats, err := f.execute(b)
	if err != nil {
		f.state = FrameDiscarded
		return stats, err
	}
	f.stats = stats
	f.state = FrameExecuted
	Logger().Debug("frame executed",
		"batches", stats.Batches, "draw_calls", stats.DrawCalls,
		"bind_switches", stats.BindSwitches)
	return stats, nil
}

func (f *Frame) execute(b Backend) (FrameStats, error) {
	stats := f.stats

	if err := b.BeginFrame(f.width, f.height); err != nil {
		return stats, fmt.Errorf("begin frame: %w", err)
	}
	if len(f.verts) > 0 {
		if err := b.UploadVertices(f.verts); err != nil {
			return stats, fmt.Errorf("upload vertices: %w", err)
		}
	}

	var bound TextureBinding
	for i := range f.batches {
		batch := &f.batches[i]
		if err := b.UploadGroupUniforms(i, batch.uniforms); err != nil {
			return stats, fmt.Errorf("upload group uniforms %d: %w", i, err)
		}
		if batch.binding != bound {
			if err := b.BindTexture(batch.binding); err != nil {
				return stats, fmt.Errorf("bind texture %d: %w", batch.Texture, err)
			}
			bound = batch.binding
			stats.BindSwitches++
		}
		if err := b.BindGroupUniforms(i); err != nil {
			return stats, fmt.Errorf("bind group uniforms %d: %w", i, err)
		}
		if err := b.Draw(batch.First, batch.Count); err != nil {
			return stats, fmt.Errorf("draw batch %d: %w", i, err)
		}
		stats.DrawCalls++
	}

	if err := b.EndFrame(); err != nil {
		return stats, fmt.Errorf("end frame: %w", err)
	}
	return stats, nil
}
