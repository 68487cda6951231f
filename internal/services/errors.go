package services

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any external call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream wraps failures of an external collaborator.
	ErrUpstream = errors.New("upstream service failed")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyWardrobe means there is nothing of the opposite category to match against.
	ErrEmptyWardrobe = errors.New("nothing to match against")
	// ErrNoLookFound means no searchable garment was detected.
	ErrNoLookFound = errors.New("no dress detected in the image")
	// ErrNoOutput means the try-on service returned no image.
	ErrNoOutput = errors.New("failed to get output image")
	// ErrSessionNotFound is returned for unknown or expired match sessions.
	ErrSessionNotFound = errors.New("match session not found")
	// ErrForbidden is returned when a session belongs to another user.
	ErrForbidden = errors.New("forbidden")
)
