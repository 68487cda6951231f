package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/ShameelMohamed/FASHN8/internal/garment"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/storage"
	"github.com/ShameelMohamed/FASHN8/internal/vision"
	"github.com/ShameelMohamed/FASHN8/types"
)

const pngContentType = "image/png"

// MediaStore uploads garment crops and returns their public URLs.
type MediaStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// EventPublisher announces saved garments.
type EventPublisher interface {
	PublishGarment(ctx context.Context, event types.GarmentEvent) (string, error)
}

// WardrobeService runs the garment pipeline and manages per-user wardrobes.
type WardrobeService struct {
	users    UserRepository
	detector vision.Detector
	remover  vision.BackgroundRemover
	media    MediaStore
	events   EventPublisher
	folder   string
	log      logging.Logger
	now      func() time.Time
}

// NewWardrobeService wires the pipeline. events may be nil.
func NewWardrobeService(
	users UserRepository,
	detector vision.Detector,
	remover vision.BackgroundRemover,
	media MediaStore,
	events EventPublisher,
	folder string,
	log logging.Logger,
) *WardrobeService {
	return &WardrobeService{
		users:    users,
		detector: detector,
		remover:  remover,
		media:    media,
		events:   events,
		folder:   folder,
		log:      log,
		now:      time.Now,
	}
}

// Detect previews the garments found in data without storing anything.
func (s *WardrobeService) Detect(ctx context.Context, data []byte) ([]types.DetectedGarment, error) {
	garments, err := s.extract(ctx, data)
	if err != nil {
		return nil, err
	}

	detected := make([]types.DetectedGarment, 0, len(garments))
	for _, g := range garments {
		d, err := describe(g)
		if err != nil {
			return nil, err
		}
		detected = append(detected, d)
	}
	return detected, nil
}

// Save runs the pipeline on data and stores every detected garment in the
// user's wardrobe. When labels is non-empty only garments with one of those
// labels are stored. An empty result means nothing was detected. On error
// the garments stored before the failure are returned with it.
func (s *WardrobeService) Save(ctx context.Context, username string, data []byte, labels []string) ([]types.WardrobeItem, error) {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}

	garments, err := s.extract(ctx, data)
	if err != nil {
		return nil, err
	}

	keep := labelSet(labels)
	items := make([]types.WardrobeItem, 0, len(garments))
	for _, g := range garments {
		if len(keep) > 0 {
			if _, ok := keep[g.Label]; !ok {
				continue
			}
		}

		d, err := describe(g)
		if err != nil {
			return items, err
		}

		key := storage.GarmentKey(s.folder, username, d.Label, d.Color)
		url, err := s.media.Upload(ctx, key, d.CropPNG, pngContentType)
		if err != nil {
			return items, fmt.Errorf("%w: upload %s: %w", ErrUpstream, key, err)
		}
		if err := s.users.PutWardrobeItem(ctx, username, d.Category, d.Color, url); err != nil {
			return items, fmt.Errorf("save %s %s: %w", d.Category, d.Color, err)
		}

		item := types.WardrobeItem{
			Category: d.Category,
			Label:    d.Label,
			Color:    d.Color,
			ImageURL: url,
		}
		items = append(items, item)
		s.log.Info(ctx, "garment saved", "user", username, "category", item.Category, "label", item.Label, "color", item.Color)
		s.publish(ctx, username, item)
	}
	return items, nil
}

// Wardrobe returns both of the user's wardrobes.
func (s *WardrobeService) Wardrobe(ctx context.Context, username string) (types.WardrobeView, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return types.WardrobeView{}, err
	}
	return types.WardrobeView{
		Shirts: user.Shirts.Items(types.CategoryTop),
		Pants:  user.Pants.Items(types.CategoryBottom),
	}, nil
}

// Items returns the user's garments of one category, sorted by color key.
func (s *WardrobeService) Items(ctx context.Context, username string, category types.Category) ([]types.WardrobeItem, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Wardrobe(category).Items(category), nil
}

// extract decodes data, strips its background, detects apparel and crops
// every accepted region.
func (s *WardrobeService) extract(ctx context.Context, data []byte) ([]garment.Garment, error) {
	img, encoded, err := decodeUpload(data)
	if err != nil {
		return nil, err
	}

	stripped, err := stripBackground(ctx, s.remover, encoded)
	if err != nil {
		return nil, err
	}

	regions, err := s.detector.Detect(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: detect apparel: %w", ErrUpstream, err)
	}

	return garment.Extract(regions, img.Bounds().Size(), stripped), nil
}

func (s *WardrobeService) publish(ctx context.Context, username string, item types.WardrobeItem) {
	if s.events == nil {
		return
	}
	event := types.GarmentEvent{
		Username: username,
		Category: item.Category,
		Label:    item.Label,
		Color:    item.Color,
		ImageURL: item.ImageURL,
		SavedAt:  s.now().UTC(),
	}
	if _, err := s.events.PublishGarment(ctx, event); err != nil {
		s.log.Warn(ctx, "publish garment event failed", "user", username, "color", item.Color, "error", err)
	}
}

func describe(g garment.Garment) (types.DetectedGarment, error) {
	swatch := garment.DominantColor(g.Image)
	crop, err := garment.EncodePNG(g.Image)
	if err != nil {
		return types.DetectedGarment{}, err
	}
	return types.DetectedGarment{
		Category:   g.Category,
		Label:      g.Label,
		Confidence: g.Confidence,
		Color:      swatch.Hex,
		ColorNote:  swatch.Note,
		CropPNG:    crop,
	}, nil
}

// decodeUpload decodes an upload into an opaque bitmap and its PNG encoding.
func decodeUpload(data []byte) (*image.NRGBA, []byte, error) {
	img, err := garment.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	encoded, err := garment.EncodePNG(img)
	if err != nil {
		return nil, nil, err
	}
	return img, encoded, nil
}

func stripBackground(ctx context.Context, remover vision.BackgroundRemover, encoded []byte) (*image.NRGBA, error) {
	raw, err := remover.Remove(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: remove background: %w", ErrUpstream, err)
	}
	stripped, err := garment.DecodeRGBA(raw)
	if err != nil {
		if errors.Is(err, garment.ErrUndecodable) {
			return nil, fmt.Errorf("%w: background remover returned an unreadable image", ErrUpstream)
		}
		return nil, err
	}
	return stripped, nil
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		for _, part := range strings.Split(label, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				set[part] = struct{}{}
			}
		}
	}
	return set
}
