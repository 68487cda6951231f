package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clarifaiConfig(baseURL string) config.VisionConfig {
	return config.VisionConfig{
		ClarifaiBaseURL: baseURL,
		ClarifaiPAT:     "pat-123",
		ClarifaiUserID:  "clarifai",
		ClarifaiAppID:   "main",
		ClarifaiModelID: "apparel-detection",
		RembgURL:        baseURL,
		Timeout:         5 * time.Second,
	}
}

const clarifaiOK = `{
  "status": {"code": 10000, "description": "Ok"},
  "outputs": [{
    "status": {"code": 10000},
    "data": {"regions": [
      {"region_info": {"bounding_box": {"top_row": 0.1, "left_col": 0.2, "bottom_row": 0.5, "right_col": 0.8}},
       "data": {"concepts": [{"name": "top", "value": 0.93}, {"name": "vest", "value": 0.4}]}},
      {"region_info": {"bounding_box": {"top_row": 0.5, "left_col": 0.25, "bottom_row": 0.95, "right_col": 0.75}},
       "data": {"concepts": [{"name": "skirt", "value": 0.9}]}},
      {"region_info": {"bounding_box": {}}, "data": {"concepts": []}}
    ]}
  }]
}`

func TestClarifaiClient_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/users/clarifai/apps/main/models/apparel-detection/outputs", r.URL.Path)
		assert.Equal(t, "Key pat-123", r.Header.Get("Authorization"))

		var req clarifaiRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Inputs, 1) {
			raw, err := base64.StdEncoding.DecodeString(req.Inputs[0].Data.Image.Base64)
			assert.NoError(t, err)
			assert.Equal(t, []byte("image-bytes"), raw)
		}
		_, _ = io.WriteString(w, clarifaiOK)
	}))
	defer srv.Close()

	c, err := NewClarifaiClient(clarifaiConfig(srv.URL))
	require.NoError(t, err)

	regions, err := c.Detect(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)

	assert.Equal(t, []types.DetectedRegion{
		{Label: "top", Confidence: 0.93, Box: types.BoundingBox{Left: 0.2, Top: 0.1, Right: 0.8, Bottom: 0.5}},
		{Label: "skirt", Confidence: 0.9, Box: types.BoundingBox{Left: 0.25, Top: 0.5, Right: 0.75, Bottom: 0.95}},
	}, regions)
}

func TestClarifaiClient_NoRegions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":{"code":10000},"outputs":[{"status":{"code":10000},"data":{}}]}`)
	}))
	defer srv.Close()

	c, err := NewClarifaiClient(clarifaiConfig(srv.URL))
	require.NoError(t, err)

	regions, err := c.Detect(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestClarifaiClient_FailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":{"code":11102,"description":"Invalid API key"}}`)
	}))
	defer srv.Close()

	c, err := NewClarifaiClient(clarifaiConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Detect(context.Background(), []byte("x"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 11102, statusErr.Code)
	assert.Equal(t, "Invalid API key", statusErr.Message)
}

func TestClarifaiClient_NonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClarifaiClient(clarifaiConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Detect(context.Background(), []byte("x"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestNewClarifaiClient_RequiresPAT(t *testing.T) {
	cfg := clarifaiConfig("http://localhost")
	cfg.ClarifaiPAT = " "

	_, err := NewClarifaiClient(cfg)
	assert.Error(t, err)
}
