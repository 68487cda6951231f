package types

// RetailerLink is a ready-to-open search URL on one shopping site.
type RetailerLink struct {
	Retailer string `json:"retailer"`
	URL      string `json:"url"`
}

// LookSearch is the result of turning an inspiration photo into shopping searches.
type LookSearch struct {
	// Label is the detector label of the garment that was searched for.
	Label string `json:"label,omitempty"`

	// Caption is the cleaned caption of the garment crop.
	Caption string `json:"caption,omitempty"`

	// Query is the search query sent to the retailers.
	Query string `json:"query"`

	Links []RetailerLink `json:"links"`
}
