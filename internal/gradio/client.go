// Package gradio is a minimal client for the HTTP API of hosted gradio apps:
// file upload, queued calls and their server-sent result stream.
package gradio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ShameelMohamed/FASHN8/types"
)

const maxLineSize = 4 << 20

// ErrNoOutput is returned when a call completes without any output value.
var ErrNoOutput = errors.New("gradio call returned no output")

// CallError is the error event of a gradio call.
type CallError struct {
	API     string
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gradio %s failed", e.API)
	}
	return fmt.Sprintf("gradio %s failed: %s", e.API, e.Message)
}

// Client talks to a single gradio app.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New returns a client for the app served at baseURL. A non-empty token is
// sent as a bearer token.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
	}
}

// FileData references a file already uploaded to the app.
type FileData struct {
	Path string       `json:"path"`
	URL  string       `json:"url,omitempty"`
	Meta FileDataMeta `json:"meta"`
}

type FileDataMeta struct {
	Type string `json:"_type"`
}

// FileRef wraps an uploaded path as a call argument.
func FileRef(path string) FileData {
	return FileData{Path: path, Meta: FileDataMeta{Type: "gradio.FileData"}}
}

// Upload stores file on the app and returns its server-side path.
func (c *Client) Upload(ctx context.Context, file types.ImageFile) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	name := file.Filename
	if name == "" {
		name = "image.png"
	}
	part, err := writer.CreateFormFile("files", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/gradio_api/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gradio upload: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var paths []string
	if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
		return "", fmt.Errorf("gradio upload response: %w", err)
	}
	if len(paths) == 0 || paths[0] == "" {
		return "", errors.New("gradio upload returned no path")
	}
	return paths[0], nil
}

// Predict runs api with the positional data arguments and waits for the
// result. The returned slice holds one raw value per output component.
func (c *Client) Predict(ctx context.Context, api string, data ...any) ([]json.RawMessage, error) {
	api = strings.TrimPrefix(api, "/")
	if data == nil {
		data = []any{}
	}
	payload, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/gradio_api/call/"+api, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gradio call %s: %w", api, err)
	}
	var queued struct {
		EventID string `json:"event_id"`
	}
	err = checkStatus(resp)
	if err == nil {
		err = json.NewDecoder(resp.Body).Decode(&queued)
	}
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("gradio call %s: %w", api, err)
	}
	if queued.EventID == "" {
		return nil, fmt.Errorf("gradio call %s: missing event id", api)
	}

	return c.result(ctx, api, queued.EventID)
}

func (c *Client) result(ctx context.Context, api, eventID string) ([]json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/gradio_api/call/"+api+"/"+eventID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gradio result %s: %w", api, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return readEvents(resp.Body, api)
}

// readEvents scans the server-sent event stream until a terminal event.
func readEvents(r io.Reader, api string) ([]json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				var out []json.RawMessage
				if err := json.Unmarshal([]byte(data), &out); err != nil {
					return nil, fmt.Errorf("gradio result %s: %w", api, err)
				}
				return out, nil
			case "error":
				if data == "null" {
					data = ""
				}
				return nil, &CallError{API: api, Message: strings.Trim(data, `"`)}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gradio result %s: %w", api, err)
	}
	return nil, fmt.Errorf("gradio result %s: stream ended without a result", api)
}

// OutputURL resolves an output value that is either a string or a file
// object into a fetchable URL.
func (c *Client) OutputURL(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", ErrNoOutput
		}
		return c.fileURL(s), nil
	}

	var file FileData
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", ErrNoOutput
	}
	if file.URL != "" {
		return file.URL, nil
	}
	if file.Path != "" {
		return c.fileURL(file.Path), nil
	}
	return "", ErrNoOutput
}

// OutputText returns a string output value.
func OutputText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("gradio output is not text: %w", err)
	}
	return s, nil
}

func (c *Client) fileURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/gradio_api/file=" + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("gradio %s %s: status %d: %s",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
}
