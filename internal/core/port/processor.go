package port

import (
	"context"
	"pixify/internal/core/domain"
)

type ImageProcessor interface {
	// ProcessImage runs the full generation pipeline and returns the resulting PNG.
	ProcessImage(ctx context.Context, request domain.GenerationRequest) ([]byte, error)
}
