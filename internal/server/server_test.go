package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noUsers struct{}

func (noUsers) GetByUsername(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (noUsers) Create(_ context.Context, user types.User) (types.User, error) {
	return user, nil
}

func (noUsers) PutWardrobeItem(context.Context, string, types.Category, string, string) error {
	return store.ErrNotFound
}

func TestNewRouter_Routes(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}
	router := NewRouter(cfg, Deps{Users: noUsers{}}, logging.Nop())

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/wardrobe/", http.StatusUnauthorized},
		{http.MethodPost, "/match/sessions/", http.StatusUnauthorized},
		{http.MethodPost, "/tryon/", http.StatusUnauthorized},
		{http.MethodPost, "/shop/search", http.StatusUnauthorized},
		{http.MethodGet, "/shop/links?q=red+dress", http.StatusOK},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(context.Background(), config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
