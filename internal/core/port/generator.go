package port

import (
	"context"
	"pixify/internal/core/domain"
)

type ImageGenerator interface {
	// GenerateFromPrompt requests exactly one image of the given size and returns the URL it can be retrieved from.
	GenerateFromPrompt(ctx context.Context, prompt string, size domain.ImageSize) (string, error)
}
