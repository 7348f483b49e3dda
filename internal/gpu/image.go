package gpu

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// maxTextureDim is the largest texture edge the backend will upload.
// Matches the WebGPU default maxTextureDimension2D limit.
const maxTextureDim = 8192

// copyPitchAlignment is the row alignment wgpu requires for texture-to-buffer
// copies.
const copyPitchAlignment = 256

// alignedBytesPerRow rounds a tight RGBA row up to the copy pitch alignment.
func alignedBytesPerRow(width int) int {
	bytesPerRow := width * 4
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// toRGBA returns img as an *image.RGBA with bounds anchored at the origin.
// The result aliases img when it already has the right layout.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == image.Pt(0, 0) {
		return rgba
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}

// clampToMaxDim downscales img so neither edge exceeds maxTextureDim,
// preserving aspect ratio. Images already in range are returned unchanged.
func clampToMaxDim(img *image.RGBA) *image.RGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= maxTextureDim && h <= maxTextureDim {
		return img
	}

	scale := float64(maxTextureDim) / float64(w)
	if h > w {
		scale = float64(maxTextureDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// tightPixels returns the pixel data of img as tightly packed RGBA rows.
// The slice aliases img.Pix when the stride already matches.
func tightPixels(img *image.RGBA) []byte {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	rowBytes := w * 4

	if img.Stride == rowBytes {
		return img.Pix[:rowBytes*h]
	}

	buf := make([]byte, rowBytes*h)
	for y := range h {
		src := img.Pix[y*img.Stride:]
		copy(buf[y*rowBytes:(y+1)*rowBytes], src[:rowBytes])
	}
	return buf
}

// stripRowPadding copies padded readback rows into a tight *image.RGBA.
// srcRow is the padded row length in bytes, as returned by alignedBytesPerRow.
func stripRowPadding(data []byte, width, height, srcRow int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowBytes := width * 4
	for y := range height {
		src := data[y*srcRow:]
		copy(img.Pix[y*img.Stride:], src[:rowBytes])
	}
	return img
}
