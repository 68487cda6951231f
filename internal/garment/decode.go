// Package garment isolates garments in photos: decoding uploads, filtering
// detector regions, cropping them out of the background-free bitmap, and
// computing a color key for each crop.
package garment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned for uploads that are not a supported image.
var ErrUndecodable = errors.New("unsupported or corrupt image")

// Decode reads a JPEG, PNG or WebP upload into an opaque RGB bitmap.
func Decode(data []byte) (*image.NRGBA, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return Flatten(img), nil
}

// DecodeRGBA reads an image keeping its alpha channel.
func DecodeRGBA(data []byte) (*image.NRGBA, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// Flatten drops the alpha channel, keeping the stored color values of every
// pixel. Fully transparent pixels therefore keep whatever color they carry.
func Flatten(img image.Image) *image.NRGBA {
	out := toNRGBA(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrUndecodable)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// toNRGBA copies img into a zero-origin, non-premultiplied bitmap.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+4*b.Dx()], src.Pix[i:i+4*b.Dx()])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
