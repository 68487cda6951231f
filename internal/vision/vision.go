// Package vision holds the clients for the remote image models: the apparel
// detector, the background remover and the image captioner.
package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShameelMohamed/FASHN8/types"
)

// Detector finds apparel regions in an encoded image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]types.DetectedRegion, error)
}

// BackgroundRemover returns a PNG of the image with its background made transparent.
type BackgroundRemover interface {
	Remove(ctx context.Context, image []byte) ([]byte, error)
}

// Captioner describes the content of an image in free text.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// StatusError is returned when a model endpoint answers with a failure status.
type StatusError struct {
	Service string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Code, e.Message)
}

func truncate(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) > 512 {
		return msg[:512]
	}
	return msg
}
