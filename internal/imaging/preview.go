package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/packing-defects/internal/mask"
)

// Layer tints one mask onto a preview.
type Layer struct {
	Mask  *mask.Mask
	Color color.NRGBA
}

// EncodedImage is a base64 PNG ready to hand to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay blends each layer's colour over img wherever its mask is set,
// using the layer's alpha, then scales the result. Later layers paint over
// earlier ones. A scale of 1, or any scale <= 0, keeps the frame size. A
// non-nil grid is drawn last, on top of the scaled preview.
func Overlay(img image.Image, layers []Layer, scale float64, grid *Grid) (*EncodedImage, error) {
	if grid != nil && grid.Spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be > 0, got %d", grid.Spacing)
	}

	// Clone re-anchors at (0,0), matching segmentation masks.
	dst := imaging.Clone(img)

	for _, l := range layers {
		if l.Mask == nil {
			continue
		}
		a := float64(l.Color.A) / 255
		r := l.Mask.Rect
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if l.Mask.At(x, y) {
					tint(dst, x, y, l.Color, a)
				}
			}
		}
	}

	frame := dst.Rect.Size()
	out := dst
	if scale > 0 && scale != 1 {
		w := int(float64(frame.X) * scale)
		h := int(float64(frame.Y) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g shrinks the frame to nothing", scale)
		}
		out = imaging.Resize(dst, w, h, imaging.NearestNeighbor)
	} else {
		scale = 1
	}
	if grid != nil {
		drawGrid(out, *grid, frame, scale)
	}
	return Encode(out)
}

// EncodeMask renders a mask as a grayscale PNG with foreground at 255.
func EncodeMask(m *mask.Mask) (*EncodedImage, error) {
	return Encode(m.ToGray())
}

// Encode PNG-encodes img as base64.
func Encode(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func blend(under, over uint8, a float64) uint8 {
	return uint8(float64(under)*(1-a) + float64(over)*a + 0.5)
}
