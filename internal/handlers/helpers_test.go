package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memUsers struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]types.User{}}
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = "id-" + user.Username
	if user.Shirts == nil {
		user.Shirts = types.Wardrobe{}
	}
	if user.Pants == nil {
		user.Pants = types.Wardrobe{}
	}
	m.users[user.Username] = user
	return user, nil
}

func (m *memUsers) PutWardrobeItem(_ context.Context, username string, category types.Category, color, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Wardrobe(category)[color] = imageURL
	return nil
}

func (m *memUsers) add(user types.User) {
	_, _ = m.Create(context.Background(), user)
}

type stubDetector struct {
	regions []types.DetectedRegion
	err     error
}

func (s stubDetector) Detect(context.Context, []byte) ([]types.DetectedRegion, error) {
	return s.regions, s.err
}

type echoRemover struct{}

func (echoRemover) Remove(_ context.Context, image []byte) ([]byte, error) {
	return image, nil
}

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

// failingMedia rejects uploads whose key contains failOn.
type failingMedia struct {
	failOn string
}

func (m failingMedia) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if strings.Contains(key, m.failOn) {
		return "", errors.New("bucket unavailable")
	}
	return "https://cdn.test/" + key, nil
}

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, string) (string, error) {
	return s.text, s.err
}

func bearer(t *testing.T, username string) string {
	t.Helper()
	token, err := issueToken(username, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target string, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func solidPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
