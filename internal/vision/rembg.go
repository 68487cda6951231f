package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ShameelMohamed/FASHN8/config"
)

const maxRembgResponse = 32 << 20

// RembgClient strips image backgrounds through a rembg HTTP server.
type RembgClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewRembgClient constructs a background remover client from config.
func NewRembgClient(cfg config.VisionConfig) (*RembgClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.RembgURL), "/")
	if base == "" {
		return nil, errors.New("rembg url is required")
	}
	return &RembgClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   base + "/api/remove",
	}, nil
}

// Remove uploads image and returns the background-free PNG.
func (c *RembgClient) Remove(ctx context.Context, image []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rembg request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRembgResponse))
	if err != nil {
		return nil, fmt.Errorf("rembg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Service: "rembg", Code: resp.StatusCode, Message: truncate(string(data))}
	}
	if len(data) == 0 {
		return nil, errors.New("rembg returned an empty image")
	}
	return data, nil
}
