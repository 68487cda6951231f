package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ShameelMohamed/FASHN8/internal/garment"
	"github.com/ShameelMohamed/FASHN8/internal/llm"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/vision"
	"github.com/ShameelMohamed/FASHN8/types"
)

var captionNoise = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

type retailer struct {
	name   string
	prefix string
}

var retailers = []retailer{
	{name: "Amazon", prefix: "https://www.amazon.in/s?k="},
	{name: "Flipkart", prefix: "https://www.flipkart.com/search?q="},
	{name: "Myntra", prefix: "https://www.myntra.com/"},
	{name: "AJIO", prefix: "https://www.ajio.com/search/?text="},
	{name: "Meesho", prefix: "https://www.meesho.com/search?q="},
}

const refinePrompt = `
You are a fashion search query generator.
Given this clothing description: "%s",
return a short, keyword-friendly query for searching on fashion websites.
Remove mentions of people, backgrounds, lighting, and poses.
Focus only on clothing type, color, material, and style.
`

// ShopService turns an inspiration photo into retailer searches.
type ShopService struct {
	detector  vision.Detector
	remover   vision.BackgroundRemover
	captioner vision.Captioner
	generator llm.Generator
	log       logging.Logger
}

func NewShopService(
	detector vision.Detector,
	remover vision.BackgroundRemover,
	captioner vision.Captioner,
	generator llm.Generator,
	log logging.Logger,
) *ShopService {
	return &ShopService{
		detector:  detector,
		remover:   remover,
		captioner: captioner,
		generator: generator,
		log:       log,
	}
}

// Search crops the first searchable garment of data, captions it and builds
// retailer links for a query derived from the caption.
func (s *ShopService) Search(ctx context.Context, data []byte) (types.LookSearch, error) {
	img, encoded, err := decodeUpload(data)
	if err != nil {
		return types.LookSearch{}, err
	}

	stripped, err := stripBackground(ctx, s.remover, encoded)
	if err != nil {
		return types.LookSearch{}, err
	}

	regions, err := s.detector.Detect(ctx, encoded)
	if err != nil {
		return types.LookSearch{}, fmt.Errorf("%w: detect apparel: %w", ErrUpstream, err)
	}

	look, ok := garment.SelectLook(regions)
	if !ok {
		return types.LookSearch{}, ErrNoLookFound
	}
	rect := garment.PixelBox(look.Box, img.Bounds().Dx(), img.Bounds().Dy())
	if rect.Empty() {
		return types.LookSearch{}, ErrNoLookFound
	}

	crop, err := garment.EncodePNG(garment.Flatten(garment.Crop(stripped, rect)))
	if err != nil {
		return types.LookSearch{}, err
	}

	caption, err := s.captioner.Caption(ctx, crop)
	if err != nil {
		return types.LookSearch{}, fmt.Errorf("%w: caption look: %w", ErrUpstream, err)
	}
	caption = CleanCaption(caption)

	query := s.RefineQuery(ctx, caption)
	s.log.Info(ctx, "look search", "label", look.Label, "query", query)

	return types.LookSearch{
		Label:   strings.ToLower(strings.TrimSpace(look.Label)),
		Caption: caption,
		Query:   query,
		Links:   Links(query),
	}, nil
}

// RefineQuery asks the generator to shorten caption into a search query.
// The caption itself is used when the generator fails or returns nothing.
func (s *ShopService) RefineQuery(ctx context.Context, caption string) string {
	text, err := s.generator.Generate(ctx, fmt.Sprintf(refinePrompt, caption))
	if err != nil {
		s.log.Warn(ctx, "refine query failed, using caption", "error", err)
		return caption
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return caption
	}
	return text
}

// CleanCaption drops everything but letters, digits and whitespace.
func CleanCaption(caption string) string {
	return strings.TrimSpace(captionNoise.ReplaceAllString(caption, ""))
}

// Links builds the search URL of every retailer for query.
func Links(query string) []types.RetailerLink {
	escaped := url.QueryEscape(query)
	links := make([]types.RetailerLink, 0, len(retailers))
	for _, r := range retailers {
		links = append(links, types.RetailerLink{Retailer: r.name, URL: r.prefix + escaped})
	}
	return links
}
