package types

import (
	"fmt"
	"strings"
)

// Workflow selects the compositing mode of the virtual try-on service.
type Workflow string

const (
	WorkflowTop      Workflow = "top"
	WorkflowFullBody Workflow = "full-body"
	WorkflowEyewear  Workflow = "eyewear"
	WorkflowFootwear Workflow = "footwear"
)

// ParseWorkflow accepts either the workflow value or its garment-type
// display name (e.g. "Top Garment").
func ParseWorkflow(raw string) (Workflow, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "top", "top garment":
		return WorkflowTop, nil
	case "full-body", "full-body garment", "full body", "full body garment":
		return WorkflowFullBody, nil
	case "eyewear":
		return WorkflowEyewear, nil
	case "footwear":
		return WorkflowFootwear, nil
	default:
		return "", fmt.Errorf("invalid workflow %q", raw)
	}
}

// ImageFile is an uploaded image passed to a remote service.
type ImageFile struct {
	Filename string
	Data     []byte
}

// TryOnResult is the output of a virtual try-on run.
type TryOnResult struct {
	Workflow Workflow `json:"workflow"`

	// ImageURL references the composited image on the remote service.
	ImageURL string `json:"image_url"`
}
