package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShameelMohamed/FASHN8/internal/garment"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/tryon"
	"github.com/ShameelMohamed/FASHN8/types"
)

// TryOnService forwards try-on requests to the compositor.
type TryOnService struct {
	compositor tryon.Compositor
	log        logging.Logger
}

func NewTryOnService(compositor tryon.Compositor, log logging.Logger) *TryOnService {
	return &TryOnService{compositor: compositor, log: log}
}

// TryOn renders garment onto base. workflow may be a workflow value or its
// display name.
func (s *TryOnService) TryOn(ctx context.Context, base, garmentImage types.ImageFile, workflow string) (types.TryOnResult, error) {
	if len(base.Data) == 0 || len(garmentImage.Data) == 0 {
		return types.TryOnResult{}, fmt.Errorf("%w: both a base image and a garment image are required", ErrInvalidInput)
	}
	wf, err := types.ParseWorkflow(workflow)
	if err != nil {
		return types.TryOnResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	for _, f := range []types.ImageFile{base, garmentImage} {
		if _, err := garment.Decode(f.Data); err != nil {
			return types.TryOnResult{}, fmt.Errorf("%w: %s: %w", ErrInvalidInput, f.Filename, err)
		}
	}

	url, err := s.compositor.Compose(ctx, base, garmentImage, wf)
	if err != nil {
		if errors.Is(err, tryon.ErrNoOutput) {
			return types.TryOnResult{}, ErrNoOutput
		}
		return types.TryOnResult{}, fmt.Errorf("%w: try-on: %w", ErrUpstream, err)
	}
	if url == "" {
		return types.TryOnResult{}, ErrNoOutput
	}

	s.log.Info(ctx, "try-on composed", "workflow", wf)
	return types.TryOnResult{Workflow: wf, ImageURL: url}, nil
}
