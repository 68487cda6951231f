package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category is the coarse garment class a wardrobe entry belongs to.
type Category string

const (
	CategoryTop    Category = "top"
	CategoryBottom Category = "bottom"
)

// ParseCategory accepts the category names as well as the wardrobe field
// names ("shirts", "pants") used by clients.
func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "top", "tops", "shirt", "shirts":
		return CategoryTop, nil
	case "bottom", "bottoms", "pant", "pants":
		return CategoryBottom, nil
	default:
		return "", fmt.Errorf("invalid category %q", raw)
	}
}

// Opposite returns the category a garment of c is paired with.
func (c Category) Opposite() Category {
	if c == CategoryTop {
		return CategoryBottom
	}
	return CategoryTop
}

// Field returns the name of the user field that stores entries of c.
func (c Category) Field() string {
	if c == CategoryTop {
		return "shirts"
	}
	return "pants"
}

// Noun returns the singular display noun for a garment of c.
func (c Category) Noun() string {
	if c == CategoryTop {
		return "Shirt"
	}
	return "Pants"
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryTop || c == CategoryBottom
}

// Wardrobe maps a color key (#rrggbb) to the URL of a stored garment image.
type Wardrobe map[string]string

// Colors returns the color keys in sorted order.
func (w Wardrobe) Colors() []string {
	colors := make([]string, 0, len(w))
	for color := range w {
		colors = append(colors, color)
	}
	sort.Strings(colors)
	return colors
}

// Items flattens the wardrobe into entries of the given category.
func (w Wardrobe) Items(category Category) []WardrobeItem {
	items := make([]WardrobeItem, 0, len(w))
	for _, color := range w.Colors() {
		items = append(items, WardrobeItem{
			Category: category,
			Color:    color,
			ImageURL: w[color],
		})
	}
	return items
}

// WardrobeItem is a single stored garment, derived from a wardrobe map entry.
type WardrobeItem struct {
	// Category is the garment class (top or bottom).
	Category Category `json:"category"`

	// Label is the detector label that produced the item. It is only
	// known for items returned from an upload.
	Label string `json:"label,omitempty"`

	// Color is the hex color key of the garment.
	Color string `json:"color"`

	// ImageURL is the public URL of the stored crop.
	ImageURL string `json:"image_url"`
}

// GarmentEvent is published whenever a garment is saved to a wardrobe.
type GarmentEvent struct {
	Username string    `json:"username"`
	Category Category  `json:"category"`
	Label    string    `json:"label"`
	Color    string    `json:"color"`
	ImageURL string    `json:"image_url"`
	SavedAt  time.Time `json:"saved_at"`
}

// WardrobeView lists every stored garment of a user, grouped by category.
type WardrobeView struct {
	Shirts []WardrobeItem `json:"shirts"`
	Pants  []WardrobeItem `json:"pants"`
}
