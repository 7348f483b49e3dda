package sprite

import (
	"image"
	"image/color"
	"testing"
)

// benchBackend is a no-op backend so benchmarks measure engine cost
// rather than backend recording overhead.
type benchBackend struct{}

type benchBinding struct{}

func (*benchBinding) Release() {}

func (benchBackend) CreateTextureBinding(texture any, size image.Point, mask bool) (TextureBinding, error) {
	return &benchBinding{}, nil
}
func (benchBackend) BeginFrame(width, height int) error              { return nil }
func (benchBackend) UploadVertices(data []byte) error                { return nil }
func (benchBackend) UploadGroupUniforms(slot int, data []byte) error { return nil }
func (benchBackend) BindTexture(tb TextureBinding) error             { return nil }
func (benchBackend) BindGroupUniforms(slot int) error                { return nil }
func (benchBackend) Draw(first, count uint32) error                  { return nil }
func (benchBackend) EndFrame() error                                 { return nil }
func (benchBackend) Close()                                          {}

func benchRegistry(b *testing.B, textures int) *Registry {
	b.Helper()
	reg, err := NewRegistry(benchBackend{})
	if err != nil {
		b.Fatal(err)
	}
	for i := 1; i <= textures; i++ {
		if err := reg.Register(TextureID(i), nil, image.Pt(64, 64), false); err != nil {
			b.Fatal(err)
		}
	}
	return reg
}

// BenchmarkFrame_Submit benchmarks staging sprites into a reused frame.
func BenchmarkFrame_Submit(b *testing.B) {
	counts := []struct {
		name    string
		sprites int
	}{
		{"100", 100},
		{"1k", 1000},
		{"10k", 10000},
	}

	for _, c := range counts {
		b.Run(c.name, func(b *testing.B) {
			reg := benchRegistry(b, 1)
			defer reg.Close()
			frame := NewFrame(reg, 1920, 1080, WithCapacity(c.sprites))
			s := Sprite{
				Texture:   1,
				Src:       image.Rect(0, 0, 64, 64),
				Transform: Translation(10, 10),
				Tint:      color.RGBA{255, 255, 255, 255},
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				frame.Reset(1920, 1080)
				for n := 0; n < c.sprites; n++ {
					if err := frame.Submit(s); err != nil {
						b.Fatal(err)
					}
				}
			}
			b.SetBytes(int64(c.sprites) * bytesPerSprite)
		})
	}
}

// BenchmarkFrame_Finalize benchmarks building and finalizing a 1k sprite
// frame under the texture orders that matter for batching: a single
// texture, four interleaved textures, and the same interleaving with
// reordering requested.
func BenchmarkFrame_Finalize(b *testing.B) {
	const sprites = 1000

	scenes := []struct {
		name     string
		textures int
		opts     []FrameOption
	}{
		{"uniform", 1, nil},
		{"interleaved", 4, nil},
		{"reordered", 4, []FrameOption{WithReorder()}},
	}

	for _, sc := range scenes {
		b.Run(sc.name, func(b *testing.B) {
			reg := benchRegistry(b, sc.textures)
			defer reg.Close()
			frame := NewFrame(reg, 1920, 1080, append(sc.opts, WithCapacity(sprites))...)
			s := Sprite{
				Src:       image.Rect(0, 0, 64, 64),
				Transform: Translation(10, 10),
				Tint:      color.RGBA{255, 255, 255, 255},
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				frame.Reset(1920, 1080)
				for n := 0; n < sprites; n++ {
					s.Texture = TextureID(n%sc.textures + 1)
					if err := frame.Submit(s); err != nil {
						b.Fatal(err)
					}
				}
				if err := frame.Finalize(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFrame_Execute benchmarks the full frame cycle against a no-op
// backend, which prices the executor walk on top of build and finalize.
func BenchmarkFrame_Execute(b *testing.B) {
	const sprites = 1000

	reg := benchRegistry(b, 4)
	defer reg.Close()
	backend := benchBackend{}
	frame := NewFrame(reg, 1920, 1080, WithCapacity(sprites))
	s := Sprite{
		Src:       image.Rect(0, 0, 64, 64),
		Transform: Translation(10, 10),
		Tint:      color.RGBA{255, 255, 255, 255},
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		frame.Reset(1920, 1080)
		for n := 0; n < sprites; n++ {
			s.Texture = TextureID(n%4 + 1)
			if err := frame.Submit(s); err != nil {
				b.Fatal(err)
			}
		}
		if err := frame.Finalize(); err != nil {
			b.Fatal(err)
		}
		if _, err := frame.Execute(backend); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(sprites) * bytesPerSprite)
}
