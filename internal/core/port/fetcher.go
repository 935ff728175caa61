package port

import (
	"context"
	"image"
)

type ImageFetcher interface {
	// FetchImage downloads and decodes the image at url, normalized to opaque RGB.
	FetchImage(ctx context.Context, url string) (*image.NRGBA, error)
}
