package tryon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShameelMohamed/FASHN8/internal/gradio"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpace(t *testing.T, result string) (*httptest.Server, *[]any) {
	t.Helper()
	var uploads int32
	var data []any
	mux := http.NewServeMux()
	mux.HandleFunc("/gradio_api/upload", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&uploads, 1)
		fmt.Fprintf(w, `["/tmp/upload-%d.png"]`, n)
	})
	mux.HandleFunc("/gradio_api/call/generate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data []any `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		data = body.Data
		fmt.Fprint(w, `{"event_id":"gen-1"}`)
	})
	mux.HandleFunc("/gradio_api/call/generate/gen-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "event: complete\ndata: %s\n\n", result)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &data
}

func TestGradioCompositor_Compose(t *testing.T) {
	srv, data := newSpace(t, `["/tmp/out.png"]`)
	c := NewGradioCompositor(gradio.New(srv.URL, "", time.Second))

	url, err := c.Compose(context.Background(),
		types.ImageFile{Filename: "me.jpg", Data: []byte("me")},
		types.ImageFile{Filename: "shirt.png", Data: []byte("shirt")},
		types.WorkflowEyewear,
	)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/gradio_api/file=/tmp/out.png", url)
	require.Len(t, *data, 4)
	assert.Equal(t, "/tmp/upload-1.png", (*data)[0].(map[string]any)["path"])
	assert.Equal(t, "/tmp/upload-2.png", (*data)[1].(map[string]any)["path"])
	assert.Equal(t, "eyewear", (*data)[2])
	assert.Nil(t, (*data)[3])
}

func TestGradioCompositor_EmptyOutput(t *testing.T) {
	for _, result := range []string{`[]`, `[null]`, `[""]`} {
		srv, _ := newSpace(t, result)
		c := NewGradioCompositor(gradio.New(srv.URL, "", time.Second))

		_, err := c.Compose(context.Background(),
			types.ImageFile{Data: []byte("me")},
			types.ImageFile{Data: []byte("shirt")},
			types.WorkflowTop,
		)
		assert.ErrorIs(t, err, ErrNoOutput, result)
	}
}
