package garment

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strings"
)

const (
	alphaThreshold = 30
	minBrightness  = 20

	// NoVisibleColor annotates the sentinel color of an all-masked crop.
	NoVisibleColor = "No visible color"
	// DominantNote annotates a color computed from visible pixels.
	DominantNote = "Dominant"
	// SentinelColor is returned when no pixel passes the mask.
	SentinelColor = "#000000"
)

// Swatch is a color key together with how it was obtained.
type Swatch struct {
	Hex  string
	Note string
}

// Visible reports whether the swatch was computed from visible pixels.
func (s Swatch) Visible() bool {
	return s.Note == DominantNote
}

// DominantColor returns the most frequent exact RGB triple among pixels with
// alpha > 30 and luma (0.299R + 0.587G + 0.114B) > 20. Ties go to the triple
// seen first in row-major order.
func DominantColor(img image.Image) Swatch {
	counts := make(map[[3]uint8]int)
	var order [][3]uint8

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := nrgbaAt(img, x, y)
			if c.A <= alphaThreshold || luma(c) <= minBrightness {
				continue
			}
			key := [3]uint8{c.R, c.G, c.B}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	if len(order) == 0 {
		return Swatch{Hex: SentinelColor, Note: NoVisibleColor}
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return Swatch{Hex: HexColor(best[0], best[1], best[2]), Note: DominantNote}
}

// HexColor formats an RGB triple as lowercase #rrggbb.
func HexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// NormalizeHex lower-cases a #rrggbb color key and reports whether it is well formed.
func NormalizeHex(raw string) (string, bool) {
	hex := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	return hex, hexColorPattern.MatchString(hex)
}

func luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n.NRGBAAt(x, y)
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}
