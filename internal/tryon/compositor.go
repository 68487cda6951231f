// Package tryon composites a garment onto a person photo through a hosted
// virtual try-on app.
package tryon

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShameelMohamed/FASHN8/internal/gradio"
	"github.com/ShameelMohamed/FASHN8/types"
)

const generateAPI = "/generate"

// ErrNoOutput is returned when the compositor produced no image.
var ErrNoOutput = errors.New("try-on produced no image")

// Compositor renders garment onto base and returns the result image URL.
type Compositor interface {
	Compose(ctx context.Context, base, garment types.ImageFile, workflow types.Workflow) (string, error)
}

// GradioCompositor calls the generate endpoint of a try-on app.
type GradioCompositor struct {
	client *gradio.Client
}

func NewGradioCompositor(client *gradio.Client) *GradioCompositor {
	return &GradioCompositor{client: client}
}

// Compose uploads both images and runs the generate endpoint without a mask.
func (c *GradioCompositor) Compose(ctx context.Context, base, garment types.ImageFile, workflow types.Workflow) (string, error) {
	basePath, err := c.client.Upload(ctx, base)
	if err != nil {
		return "", fmt.Errorf("upload base image: %w", err)
	}
	garmentPath, err := c.client.Upload(ctx, garment)
	if err != nil {
		return "", fmt.Errorf("upload garment image: %w", err)
	}

	out, err := c.client.Predict(ctx, generateAPI,
		gradio.FileRef(basePath),
		gradio.FileRef(garmentPath),
		string(workflow),
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", ErrNoOutput
	}

	url, err := c.client.OutputURL(out[0])
	if errors.Is(err, gradio.ErrNoOutput) {
		return "", ErrNoOutput
	}
	return url, err
}
