package types

// BoundingBox is a detector box with coordinates normalized to [0,1]
// relative to the image width (Left, Right) and height (Top, Bottom).
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// DetectedRegion is a single garment region reported by the apparel detector.
// Regions are produced per detection call and never persisted.
type DetectedRegion struct {
	// Label is the detector's concept name for the region (e.g. "skirt").
	Label string `json:"label"`

	// Confidence is the detector's score for Label, in [0,1].
	Confidence float64 `json:"confidence"`

	// Box locates the region within the submitted image.
	Box BoundingBox `json:"box"`
}

// DetectedGarment is a region that passed the wardrobe filter, with its
// dominant color and a PNG encoding of the background-free crop.
type DetectedGarment struct {
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Color      string   `json:"color"`
	ColorNote  string   `json:"color_note"`
	// CropPNG is base64-encoded by encoding/json.
	CropPNG []byte `json:"crop_png,omitempty"`
}
