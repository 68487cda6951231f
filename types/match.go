package types

import "time"

// MatchStatus tells how the generative model's answer was interpreted.
type MatchStatus string

const (
	// MatchStatusMatched means the answer followed the BEST_MATCH/REASON format.
	MatchStatusMatched MatchStatus = "matched"
	// MatchStatusUnparsed means the answer was returned verbatim.
	MatchStatusUnparsed MatchStatus = "unparsed"
	// MatchStatusEmpty means the model returned no text.
	MatchStatusEmpty MatchStatus = "empty"
)

// MatchSession holds the state of one outfit-matching session. It lives in
// server memory only and is discarded on expiry or when the client ends it.
type MatchSession struct {
	// ID identifies the session in request paths.
	ID string `json:"id"`

	// Username is the owner of the session.
	Username string `json:"username"`

	// Category is the category of the focused garment.
	Category Category `json:"category"`

	// Exclusions lists every best match suggested so far, in first-seen
	// order. It only grows until the category is switched.
	Exclusions []string `json:"exclusions"`

	// CreatedAt is when the session was started.
	CreatedAt time.Time `json:"created_at"`
}

// MatchResult is the outcome of one outfit-matching request.
type MatchResult struct {
	Status MatchStatus `json:"status"`

	// BestMatch is the suggested color key of the opposite category.
	BestMatch string `json:"best_match,omitempty"`

	// Reason is the model's free-text justification.
	Reason string `json:"reason,omitempty"`

	// RawText is the unmodified model answer.
	RawText string `json:"raw_text,omitempty"`

	// ImageURL is the stored image of BestMatch, if the user owns it.
	ImageURL string `json:"image_url,omitempty"`

	// ImageFound reports whether BestMatch exists in the user's wardrobe.
	ImageFound bool `json:"image_found"`

	// Exclusions is the session exclusion list after this request.
	Exclusions []string `json:"exclusions"`

	// Message is an informational note for valid-but-empty outcomes.
	Message string `json:"message,omitempty"`
}
