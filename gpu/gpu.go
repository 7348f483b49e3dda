//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/sprite"
	gpuimpl "github.com/gogpu/sprite/internal/gpu"
)

func init() {
	sprite.RegisterBackend(BackendName, func() (sprite.Backend, error) {
		b, err := gpuimpl.New()
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}

// NewWithProvider creates a backend on a shared GPU device from an external
// provider. The provider must also expose direct HAL access through
// HalDevice() any and HalQueue() any, as gogpu device providers do.
//
// Sharing a device avoids creating a second GPU instance next to the one
// driving the window.
func NewWithProvider(provider gpucontext.DeviceProvider) (sprite.ImageBackend, error) {
	b, err := gpuimpl.NewWithProvider(provider)
	if err != nil {
		return nil, err
	}
	return b, nil
}
