package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/types"
)

const (
	clarifaiStatusSuccess = 10000
	maxClarifaiResponse   = 8 << 20
)

// ClarifaiClient calls a Clarifai detection model over its REST API.
type ClarifaiClient struct {
	httpClient *http.Client
	endpoint   string
	pat        string
}

// NewClarifaiClient constructs a detector client from config.
func NewClarifaiClient(cfg config.VisionConfig) (*ClarifaiClient, error) {
	if strings.TrimSpace(cfg.ClarifaiPAT) == "" {
		return nil, errors.New("clarifai pat is required")
	}
	endpoint := fmt.Sprintf("%s/v2/users/%s/apps/%s/models/%s/outputs",
		strings.TrimRight(cfg.ClarifaiBaseURL, "/"),
		url.PathEscape(cfg.ClarifaiUserID),
		url.PathEscape(cfg.ClarifaiAppID),
		url.PathEscape(cfg.ClarifaiModelID),
	)
	return &ClarifaiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		pat:        cfg.ClarifaiPAT,
	}, nil
}

type clarifaiRequest struct {
	Inputs []clarifaiInput `json:"inputs"`
}

type clarifaiInput struct {
	Data clarifaiInputData `json:"data"`
}

type clarifaiInputData struct {
	Image clarifaiImage `json:"image"`
}

type clarifaiImage struct {
	Base64 string `json:"base64"`
}

type clarifaiStatus struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

type clarifaiResponse struct {
	Status  clarifaiStatus `json:"status"`
	Outputs []struct {
		Status clarifaiStatus `json:"status"`
		Data   struct {
			Regions []struct {
				RegionInfo struct {
					BoundingBox struct {
						TopRow    float64 `json:"top_row"`
						LeftCol   float64 `json:"left_col"`
						BottomRow float64 `json:"bottom_row"`
						RightCol  float64 `json:"right_col"`
					} `json:"bounding_box"`
				} `json:"region_info"`
				Data struct {
					Concepts []struct {
						Name  string  `json:"name"`
						Value float64 `json:"value"`
					} `json:"concepts"`
				} `json:"data"`
			} `json:"regions"`
		} `json:"data"`
	} `json:"outputs"`
}

// Detect submits image and returns the detected regions in model order.
// Each region carries its top concept.
func (c *ClarifaiClient) Detect(ctx context.Context, image []byte) ([]types.DetectedRegion, error) {
	body, err := json.Marshal(clarifaiRequest{Inputs: []clarifaiInput{{
		Data: clarifaiInputData{Image: clarifaiImage{Base64: base64.StdEncoding.EncodeToString(image)}},
	}}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+c.pat)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clarifai request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClarifaiResponse))
	if err != nil {
		return nil, fmt.Errorf("clarifai response: %w", err)
	}

	var out clarifaiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Service: "clarifai", Code: resp.StatusCode, Message: truncate(string(data))}
		}
		return nil, fmt.Errorf("clarifai response: %w", err)
	}
	if out.Status.Code != clarifaiStatusSuccess {
		code := out.Status.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &StatusError{Service: "clarifai", Code: code, Message: out.Status.Description}
	}
	if len(out.Outputs) == 0 {
		return []types.DetectedRegion{}, nil
	}
	if code := out.Outputs[0].Status.Code; code != 0 && code != clarifaiStatusSuccess {
		return nil, &StatusError{Service: "clarifai", Code: code, Message: out.Outputs[0].Status.Description}
	}

	regions := make([]types.DetectedRegion, 0, len(out.Outputs[0].Data.Regions))
	for _, r := range out.Outputs[0].Data.Regions {
		if len(r.Data.Concepts) == 0 {
			continue
		}
		box := r.RegionInfo.BoundingBox
		regions = append(regions, types.DetectedRegion{
			Label:      r.Data.Concepts[0].Name,
			Confidence: r.Data.Concepts[0].Value,
			Box: types.BoundingBox{
				Left:   box.LeftCol,
				Top:    box.TopRow,
				Right:  box.RightCol,
				Bottom: box.BottomRow,
			},
		})
	}
	return regions, nil
}
