package garment

import (
	"image"
	"strings"

	"github.com/ShameelMohamed/FASHN8/types"
	"golang.org/x/image/draw"
)

// MinConfidence is the lowest detector score a wardrobe region may have.
const MinConfidence = 0.6

var (
	topLabels = map[string]struct{}{
		"dress": {},
		"top":   {},
		"vest":  {},
	}
	bottomLabels = map[string]struct{}{
		"pants":   {},
		"shorts":  {},
		"skirt":   {},
		"hosiery": {},
	}
	lookLabels = map[string]struct{}{
		"dress":    {},
		"gown":     {},
		"frock":    {},
		"saree":    {},
		"shirt":    {},
		"tshirt":   {},
		"jacket":   {},
		"coat":     {},
		"trousers": {},
		"jeans":    {},
		"suit":     {},
		"blazer":   {},
		"hoodie":   {},
		"sweater":  {},
		"vest":     {},
	}
)

// Garment is a cropped region that passed the wardrobe filter.
type Garment struct {
	Category   types.Category
	Label      string
	Confidence float64
	Bounds     image.Rectangle
	Image      *image.NRGBA
}

// Selection pairs a detected region with the category it maps to.
type Selection struct {
	Region   types.DetectedRegion
	Category types.Category
}

// Categorize maps a detector label onto the wardrobe taxonomy.
func Categorize(label string) (types.Category, bool) {
	label = normalizeLabel(label)
	if _, ok := topLabels[label]; ok {
		return types.CategoryTop, true
	}
	if _, ok := bottomLabels[label]; ok {
		return types.CategoryBottom, true
	}
	return "", false
}

// SelectRegions keeps regions scoring at least MinConfidence whose label is
// in the taxonomy, preserving detector order. Overlapping regions and
// several regions of the same category are all kept.
func SelectRegions(regions []types.DetectedRegion) []Selection {
	selected := make([]Selection, 0, len(regions))
	for _, region := range regions {
		if region.Confidence < MinConfidence {
			continue
		}
		category, ok := Categorize(region.Label)
		if !ok {
			continue
		}
		selected = append(selected, Selection{Region: region, Category: category})
	}
	return selected
}

// SelectLook returns the first region whose label names a searchable
// garment. No confidence threshold applies.
func SelectLook(regions []types.DetectedRegion) (types.DetectedRegion, bool) {
	for _, region := range regions {
		if _, ok := lookLabels[normalizeLabel(region.Label)]; ok {
			return region, true
		}
	}
	return types.DetectedRegion{}, false
}

// PixelBox maps a normalized box onto an image of the given size,
// truncating each coordinate. The rectangle is not canonicalized, so an
// inverted box comes back empty.
func PixelBox(box types.BoundingBox, width, height int) image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: int(box.Left * float64(width)), Y: int(box.Top * float64(height))},
		Max: image.Point{X: int(box.Right * float64(width)), Y: int(box.Bottom * float64(height))},
	}
}

// Crop copies rect out of src. Parts of rect outside src stay transparent.
func Crop(src image.Image, rect image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst
}

// Extract filters regions and crops each survivor out of stripped. Box
// coordinates are mapped with size, the dimensions of the image the
// detector saw. Regions whose pixel box is empty are skipped. An empty
// result means no garments were found.
func Extract(regions []types.DetectedRegion, size image.Point, stripped image.Image) []Garment {
	selected := SelectRegions(regions)
	garments := make([]Garment, 0, len(selected))
	for _, sel := range selected {
		rect := PixelBox(sel.Region.Box, size.X, size.Y)
		if rect.Empty() {
			continue
		}
		garments = append(garments, Garment{
			Category:   sel.Category,
			Label:      normalizeLabel(sel.Region.Label),
			Confidence: sel.Region.Confidence,
			Bounds:     rect,
			Image:      Crop(stripped, rect),
		})
	}
	return garments
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
