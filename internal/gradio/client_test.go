package gradio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UploadAndPredict(t *testing.T) {
	var callBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/gradio_api/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		file, header, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "base.png", header.Filename)
		assert.Equal(t, []byte("png-bytes"), data)
		_ = json.NewEncoder(w).Encode([]string{"/tmp/gradio/abc/base.png"})
	})
	mux.HandleFunc("/gradio_api/call/generate", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&callBody))
		_, _ = w.Write([]byte(`{"event_id":"evt-1"}`))
	})
	mux.HandleFunc("/gradio_api/call/generate/evt-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: heartbeat\ndata: null\n\n")
		fmt.Fprint(w, "event: generating\ndata: null\n\n")
		fmt.Fprint(w, "event: complete\ndata: [{\"path\":\"/tmp/out.webp\",\"url\":\"https://space/gradio_api/file=/tmp/out.webp\"}]\n\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/", "hf-token", 5*time.Second)

	path, err := c.Upload(context.Background(), types.ImageFile{Filename: "base.png", Data: []byte("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gradio/abc/base.png", path)

	out, err := c.Predict(context.Background(), "/generate", FileRef(path), "top", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	data := callBody["data"].([]any)
	require.Len(t, data, 3)
	assert.Equal(t, map[string]any{"path": "/tmp/gradio/abc/base.png", "meta": map[string]any{"_type": "gradio.FileData"}}, data[0])
	assert.Equal(t, "top", data[1])
	assert.Nil(t, data[2])

	url, err := c.OutputURL(out[0])
	require.NoError(t, err)
	assert.Equal(t, "https://space/gradio_api/file=/tmp/out.webp", url)
}

func TestClient_PredictErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/evt-2") {
			fmt.Fprint(w, "event: error\ndata: \"GPU quota exceeded\"\n\n")
			return
		}
		_, _ = w.Write([]byte(`{"event_id":"evt-2"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Predict(context.Background(), "predict")

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "GPU quota exceeded", callErr.Message)
}

func TestClient_PredictHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sleeping", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Predict(context.Background(), "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestReadEvents_StreamWithoutResult(t *testing.T) {
	_, err := readEvents(strings.NewReader("event: generating\ndata: null\n\n"), "predict")
	assert.Error(t, err)
}

func TestClient_OutputURL(t *testing.T) {
	c := New("https://space.hf.space", "", time.Second)

	got, err := c.OutputURL(json.RawMessage(`"/tmp/x.png"`))
	require.NoError(t, err)
	assert.Equal(t, "https://space.hf.space/gradio_api/file=/tmp/x.png", got)

	got, err = c.OutputURL(json.RawMessage(`"https://cdn/x.png"`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", got)

	got, err = c.OutputURL(json.RawMessage(`{"path":"/tmp/y.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://space.hf.space/gradio_api/file=/tmp/y.png", got)

	for _, raw := range []string{`""`, `null`, `{}`, `42`} {
		_, err = c.OutputURL(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrNoOutput, raw)
	}
}

func TestOutputText(t *testing.T) {
	got, err := OutputText(json.RawMessage(`"a red floral dress"`))
	require.NoError(t, err)
	assert.Equal(t, "a red floral dress", got)

	_, err = OutputText(json.RawMessage(`{"x":1}`))
	assert.Error(t, err)
}
