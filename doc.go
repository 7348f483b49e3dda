// Package sprite provides a 2D sprite batching engine for Go.
//
// # Overview
//
// sprite turns an ordered stream of textured quad draw requests into the
// smallest possible sequence of GPU draw calls while preserving the
// painter's-order correctness that alpha-blended 2D rendering requires.
// It is designed for scenes with large sprite counts (tile maps, particle
// systems, bitmap UIs) where per-draw overhead, not fill rate, is the
// bottleneck.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/sprite"
//	    _ "github.com/gogpu/sprite/gpu" // register the wgpu backend
//	)
//
//	backend, err := sprite.NewBackend("wgpu")
//	// ...
//	reg, err := sprite.NewRegistry(backend)
//	reg.Register(1, tex, image.Pt(256, 256), false)
//
//	f := sprite.NewFrame(reg, 800, 600)
//	f.Submit(sprite.Sprite{
//	    Texture:   1,
//	    Src:       image.Rect(0, 0, 64, 64),
//	    Transform: sprite.Translation(100, 100),
//	    Tint:      color.RGBA{255, 255, 255, 255},
//	})
//	f.Finalize()
//	stats, err := f.Execute(backend)
//
// # Architecture
//
// The engine is a pipeline of five small components:
//
//	Submit              Finalize                  Execute
//	  │                    │                         │
//	  ▼                    ▼                         ▼
//	geometry ──► staging ──► batcher ──► batches ──► executor ──► Backend
//	builder      buffer      (O(n) scan)             (bind-skip)   (GPU)
//
// Sprites expand to vertices at submission; the batcher groups maximal
// consecutive runs sharing (texture, group transform) into single draw
// calls; the executor walks batches binding as little state as possible.
// Batch count equals the number of such runs, the minimum achievable
// without reordering sprites across a blend-order boundary.
//
// # Ordering Contract
//
// Submission order is draw order. The batcher never merges non-consecutive
// runs: submitting texture A, then B, then A again yields three batches no
// matter how few sprites each holds. Interleaving textures sprite by sprite
// therefore degrades to one draw call per sprite. Group submissions by
// texture when overlap allows, or opt in to WithReorder when sprites are
// known not to overlap.
//
// # Backends
//
// The core is backend-agnostic: it needs buffer upload, bind-group binding
// and draw-call issuance, expressed by the Backend interface. The wgpu
// backend (package sprite/gpu) renders headlessly through gogpu/wgpu.
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left, in target pixels
//   - X increases right, Y increases down
//   - Texture coordinates in texture pixels, normalized in the shader
//   - Angles in radians
package sprite

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
