// Command spritedemo renders a batched sprite scene headlessly and saves
// it to a PNG, printing the batching statistics for a submission-order
// pass and a reordered pass of the same scene.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/gpu"
)

const (
	texAtlas sprite.TextureID = iota + 1
	texDisc
	texRing
)

func main() {
	var (
		width   = flag.Int("width", 640, "target width")
		height  = flag.Int("height", 360, "target height")
		output  = flag.String("output", "sprites.png", "output file")
		verbose = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		sprite.SetLogger(slog.Default())
	}

	backend, err := sprite.NewBackend(gpu.BackendName)
	if err != nil {
		log.Fatalf("GPU backend unavailable: %v", err)
	}
	defer backend.Close()

	reg, err := sprite.NewRegistry(backend)
	if err != nil {
		log.Fatalf("Failed to create registry: %v", err)
	}
	defer reg.Close()

	register := func(id sprite.TextureID, img *image.RGBA, mask bool) {
		if err := reg.Register(id, img, img.Bounds().Size(), mask); err != nil {
			log.Fatalf("Failed to register texture %d: %v", id, err)
		}
	}
	register(texAtlas, atlasTexture(), false)
	register(texDisc, discTexture(), false)
	register(texRing, ringTexture(), true)

	statsInOrder := renderPass(backend, reg, *width, *height)

	img := readback(backend)

	statsReordered := renderPass(backend, reg, *width, *height, sprite.WithReorder())

	log.Printf("in order:  %d sprites, %d draw calls, %d bind switches",
		statsInOrder.Sprites, statsInOrder.DrawCalls, statsInOrder.BindSwitches)
	log.Printf("reordered: %d sprites, %d draw calls, %d bind switches",
		statsReordered.Sprites, statsReordered.DrawCalls, statsReordered.BindSwitches)

	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

// renderPass builds, finalizes and executes one frame of the demo scene.
func renderPass(b sprite.Backend, reg *sprite.Registry, w, h int, opts ...sprite.FrameOption) sprite.FrameStats {
	frame := sprite.NewFrame(reg, w, h, opts...)
	if err := buildScene(frame, w, h); err != nil {
		log.Fatalf("Failed to submit scene: %v", err)
	}
	if err := frame.Finalize(); err != nil {
		log.Fatalf("Failed to finalize: %v", err)
	}
	stats, err := frame.Execute(b)
	if err != nil {
		log.Fatalf("Failed to execute: %v", err)
	}
	return stats
}

// buildScene submits the demo sprites. The scene is safe to reorder: no
// two sprites of different textures overlap, so both passes produce the
// same image while the batch counts differ.
func buildScene(f *sprite.Frame, w, h int) error {
	white := color.RGBA{255, 255, 255, 255}

	// Checkerboard floor cropped out of a single atlas texture. Every
	// tile shares the texture and group, so the whole floor collapses
	// into one draw call regardless of tile count.
	const tile = 32
	for y := 0; y < h; y += tile {
		for x := 0; x < w; x += tile {
			quad := ((x / tile) + (y / tile)) % 4
			src := image.Rect((quad%2)*tile, (quad/2)*tile, (quad%2)*tile+tile, (quad/2)*tile+tile)
			err := f.Submit(sprite.Sprite{
				Texture:   texAtlas,
				Src:       src,
				Transform: sprite.Translation(float32(x), float32(y)),
				Tint:      white,
			})
			if err != nil {
				return err
			}
		}
	}

	// Alternating discs and rings across the middle. Submitted in strict
	// alternation, the run forces a texture switch per sprite; the
	// reordered pass collapses the strip to two batches.
	y := float32(h)/2 - 24
	for i := 0; i < 12; i++ {
		s := sprite.Sprite{
			Src:       image.Rect(0, 0, 48, 48),
			Transform: sprite.Translation(float32(16+i*50), y),
			Tint:      white,
		}
		if i%2 == 0 {
			s.Texture = texDisc
		} else {
			s.Texture = texRing
			s.Tint = color.RGBA{255, 200, 40, 255}
		}
		if err := f.Submit(s); err != nil {
			return err
		}
	}

	// A shared group transform places a disc cluster as one unit. The
	// group matrix is uploaded once per batch instead of being baked
	// into every vertex.
	cam, err := f.RegisterTransform(sprite.Translation(float32(w)-180, 30).Mul(sprite.Scaling(0.75, 0.75)))
	if err != nil {
		return err
	}
	tints := []color.RGBA{{230, 60, 60, 255}, {60, 200, 90, 255}, {70, 120, 230, 255}}
	for i, tint := range tints {
		err := f.Submit(sprite.Sprite{
			Texture:   texDisc,
			Src:       image.Rect(0, 0, 48, 48),
			Transform: sprite.Translation(float32(i*36), float32(i*14)),
			Tint:      tint,
			Group:     cam,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// readback pulls the rendered target out of the backend.
func readback(b sprite.Backend) *image.RGBA {
	shots, ok := b.(sprite.ImageBackend)
	if !ok {
		log.Fatalf("Backend %q does not support readback", gpu.BackendName)
	}
	img, err := shots.Image()
	if err != nil {
		log.Fatalf("Failed to read frame: %v", err)
	}
	return img
}

// atlasTexture builds a 64x64 atlas of four solid 32x32 quadrants. The
// floor tiles crop individual quadrants out of it with their Src rect.
func atlasTexture() *image.RGBA {
	colors := [4]color.RGBA{
		{38, 70, 83, 255},
		{42, 157, 143, 255},
		{233, 196, 106, 255},
		{244, 162, 97, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, colors[(x/32)+(y/32)*2])
		}
	}
	return img
}

// discTexture builds a 48x48 soft-edged disc. Pixel bytes are written
// with straight alpha, which is what the tint and blend stages expect.
func discTexture() *image.RGBA {
	const size = 48
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c)
			a := clamp01((c - d) / 2)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = 235
			img.Pix[i+1] = 235
			img.Pix[i+2] = 245
			img.Pix[i+3] = uint8(a * 255)
		}
	}
	return img
}

// ringTexture builds a 48x48 ring coverage mask. Mask textures carry
// coverage in the red channel and take their color from the sprite tint.
func ringTexture() *image.RGBA {
	const size = 48
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c)
			cov := clamp01((c-d)/2) * clamp01((d-c+10)/2)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(cov * 255)
			img.Pix[i+3] = 255
		}
	}
	return img
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
