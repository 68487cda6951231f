package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShameelMohamed/FASHN8/internal/gradio"
	"github.com/ShameelMohamed/FASHN8/types"
)

const captionAPI = "/predict"

// GradioCaptioner captions images with a hosted image-to-prompt app.
type GradioCaptioner struct {
	client *gradio.Client
}

func NewGradioCaptioner(client *gradio.Client) *GradioCaptioner {
	return &GradioCaptioner{client: client}
}

// Caption uploads the PNG image and returns the app's description of it.
func (c *GradioCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	path, err := c.client.Upload(ctx, types.ImageFile{Filename: "look.png", Data: image})
	if err != nil {
		return "", err
	}
	out, err := c.client.Predict(ctx, captionAPI, gradio.FileRef(path))
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.New("captioner returned no output")
	}
	caption, err := gradio.OutputText(out[0])
	if err != nil {
		return "", fmt.Errorf("caption: %w", err)
	}
	return caption, nil
}
