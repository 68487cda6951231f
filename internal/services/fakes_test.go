package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newFakeUsers(users ...types.User) *fakeUsers {
	f := &fakeUsers{users: map[string]types.User{}}
	for _, u := range users {
		if u.Shirts == nil {
			u.Shirts = types.Wardrobe{}
		}
		if u.Pants == nil {
			u.Pants = types.Wardrobe{}
		}
		f.users[u.Username] = u
	}
	return f
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	u.Shirts = copyWardrobe(u.Shirts)
	u.Pants = copyWardrobe(u.Pants)
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = "id-" + user.Username
	f.users[user.Username] = user
	return user, nil
}

func (f *fakeUsers) PutWardrobeItem(_ context.Context, username string, category types.Category, color, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Wardrobe(category)[color] = imageURL
	return nil
}

func copyWardrobe(w types.Wardrobe) types.Wardrobe {
	out := make(types.Wardrobe, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

type fakeDetector struct {
	regions []types.DetectedRegion
	err     error
	calls   int
}

func (f *fakeDetector) Detect(context.Context, []byte) ([]types.DetectedRegion, error) {
	f.calls++
	return f.regions, f.err
}

// fakeRemover returns its input unchanged unless out is set.
type fakeRemover struct {
	out []byte
	err error
}

func (f *fakeRemover) Remove(_ context.Context, image []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return image, nil
}

type fakeCaptioner struct {
	caption string
	err     error
	got     []byte
}

func (f *fakeCaptioner) Caption(_ context.Context, image []byte) (string, error) {
	f.got = image
	return f.caption, f.err
}

type fakeGenerator struct {
	replies []string
	err     error
	prompts []string
	// during runs inside Generate, before the reply is returned.
	during func()
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type upload struct {
	key         string
	data        []byte
	contentType string
}

type fakeMedia struct {
	uploads []upload
	err     error
}

func (f *fakeMedia) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload{key: key, data: data, contentType: contentType})
	return "https://cdn.test/" + key, nil
}

type fakeEvents struct {
	events []types.GarmentEvent
	err    error
}

func (f *fakeEvents) PublishGarment(_ context.Context, event types.GarmentEvent) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, event)
	return "msg-1", nil
}

type fakeCompositor struct {
	url      string
	err      error
	workflow types.Workflow
}

func (f *fakeCompositor) Compose(_ context.Context, _, _ types.ImageFile, workflow types.Workflow) (string, error) {
	f.workflow = workflow
	return f.url, f.err
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var wholeImage = types.BoundingBox{Left: 0, Top: 0, Right: 1, Bottom: 1}
