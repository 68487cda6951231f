package services

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/ShameelMohamed/FASHN8/internal/garment"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks_EncodesQueryForEveryRetailer(t *testing.T) {
	links := Links("red silk dress & co")

	require.Len(t, links, 5)
	assert.Equal(t, types.RetailerLink{Retailer: "Amazon", URL: "https://www.amazon.in/s?k=red+silk+dress+%26+co"}, links[0])
	assert.Equal(t, "Flipkart", links[1].Retailer)
	assert.Equal(t, "https://www.flipkart.com/search?q=red+silk+dress+%26+co", links[1].URL)
	assert.Equal(t, "https://www.myntra.com/red+silk+dress+%26+co", links[2].URL)
	assert.Equal(t, "https://www.ajio.com/search/?text=red+silk+dress+%26+co", links[3].URL)
	assert.Equal(t, "https://www.meesho.com/search?q=red+silk+dress+%26+co", links[4].URL)
}

func TestCleanCaption(t *testing.T) {
	assert.Equal(t, "a womans red dress with", CleanCaption(" a woman's red dress, with... "))
}

func newShopFixture(regions ...types.DetectedRegion) (*ShopService, *fakeCaptioner, *fakeGenerator) {
	captioner := &fakeCaptioner{caption: "a woman wearing a red dress!"}
	gen := &fakeGenerator{replies: []string{"  red dress women  "}}
	svc := NewShopService(&fakeDetector{regions: regions}, &fakeRemover{}, captioner, gen, logging.Nop())
	return svc, captioner, gen
}

func TestSearch(t *testing.T) {
	svc, captioner, gen := newShopFixture(
		types.DetectedRegion{Label: "shoe", Confidence: 0.99, Box: wholeImage},
		types.DetectedRegion{Label: "Dress", Confidence: 0.3, Box: wholeImage},
	)

	got, err := svc.Search(context.Background(), solidPNG(t, 6, 6, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, "dress", got.Label)
	assert.Equal(t, "a woman wearing a red dress", got.Caption)
	assert.Equal(t, "red dress women", got.Query)
	assert.Len(t, got.Links, 5)
	assert.Equal(t, "https://www.amazon.in/s?k=red+dress+women", got.Links[0].URL)

	crop, err := garment.DecodeRGBA(captioner.got)
	require.NoError(t, err)
	assert.Equal(t, 6, crop.Bounds().Dx())

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `Given this clothing description: "a woman wearing a red dress",`)
}

func TestSearch_NoLookGarment(t *testing.T) {
	svc, captioner, _ := newShopFixture(types.DetectedRegion{Label: "shoe", Confidence: 0.99, Box: wholeImage})

	_, err := svc.Search(context.Background(), solidPNG(t, 4, 4, color.NRGBA{R: 200, A: 255}))
	assert.ErrorIs(t, err, ErrNoLookFound)
	assert.Nil(t, captioner.got)
}

func TestSearch_CaptionFailureIsUpstream(t *testing.T) {
	svc, captioner, _ := newShopFixture(types.DetectedRegion{Label: "jacket", Confidence: 0.9, Box: wholeImage})
	captioner.err = errors.New("space asleep")

	_, err := svc.Search(context.Background(), solidPNG(t, 4, 4, color.NRGBA{R: 200, A: 255}))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRefineQuery_FallsBackToCaption(t *testing.T) {
	svc, _, gen := newShopFixture()

	gen.err = errors.New("quota")
	assert.Equal(t, "blue jeans", svc.RefineQuery(context.Background(), "blue jeans"))

	gen.err = nil
	gen.replies = []string{"   "}
	assert.Equal(t, "blue jeans", svc.RefineQuery(context.Background(), "blue jeans"))
}
