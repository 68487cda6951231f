package services

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/tryon"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tryOnImages(t *testing.T) (types.ImageFile, types.ImageFile) {
	data := solidPNG(t, 2, 2, color.NRGBA{G: 255, A: 255})
	return types.ImageFile{Filename: "me.png", Data: data}, types.ImageFile{Filename: "shirt.png", Data: data}
}

func TestTryOn_AcceptsDisplayName(t *testing.T) {
	compositor := &fakeCompositor{url: "https://space/gradio_api/file=/tmp/out.png"}
	svc := NewTryOnService(compositor, logging.Nop())
	base, g := tryOnImages(t)

	got, err := svc.TryOn(context.Background(), base, g, "Full-body Garment")
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowFullBody, got.Workflow)
	assert.Equal(t, types.WorkflowFullBody, compositor.workflow)
	assert.Equal(t, "https://space/gradio_api/file=/tmp/out.png", got.ImageURL)
}

func TestTryOn_Validation(t *testing.T) {
	svc := NewTryOnService(&fakeCompositor{url: "u"}, logging.Nop())
	base, g := tryOnImages(t)

	_, err := svc.TryOn(context.Background(), types.ImageFile{}, g, "top")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.TryOn(context.Background(), base, g, "hat")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.TryOn(context.Background(), base, types.ImageFile{Filename: "x", Data: []byte("nope")}, "top")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTryOn_Errors(t *testing.T) {
	base, g := tryOnImages(t)

	svc := NewTryOnService(&fakeCompositor{err: tryon.ErrNoOutput}, logging.Nop())
	_, err := svc.TryOn(context.Background(), base, g, "eyewear")
	assert.ErrorIs(t, err, ErrNoOutput)

	svc = NewTryOnService(&fakeCompositor{err: errors.New("503")}, logging.Nop())
	_, err = svc.TryOn(context.Background(), base, g, "footwear")
	assert.ErrorIs(t, err, ErrUpstream)
}
