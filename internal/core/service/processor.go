package service

import (
	"context"
	"pixify/internal/core/domain"
	"pixify/internal/core/port"
	"time"

	"github.com/rs/zerolog"
)

// ImageProcessor runs generate, fetch, pixelate, reduce colors and encode in that order. Color reduction
// always sees the pixelated image.
type ImageProcessor struct {
	imageGenerator port.ImageGenerator
	imageFetcher   port.ImageFetcher
	imageConverter port.ImageConverter
}

func NewImageProcessor(imageGenerator port.ImageGenerator,
	imageFetcher port.ImageFetcher,
	imageConverter port.ImageConverter) *ImageProcessor {
	return &ImageProcessor{imageGenerator: imageGenerator,
		imageFetcher:   imageFetcher,
		imageConverter: imageConverter}
}

// ProcessImage returns the PNG encoding of the processed image. Errors from any stage are returned
// unchanged and no partial result is produced.
func (p *ImageProcessor) ProcessImage(ctx context.Context, request domain.GenerationRequest) ([]byte, error) {
	l := zerolog.Ctx(ctx).With().
		Str("size", string(request.Size)).
		Int("pixelSize", request.PixelSize).
		Int("numColors", request.NumColors).
		Logger()

	l.Info().Msg("processing image")
	start := time.Now()

	imageURL, err := p.imageGenerator.GenerateFromPrompt(ctx, request.Prompt, request.Size)
	if err != nil {
		l.Error().Err(err).Msg("image generation failed")
		return nil, err
	}

	l.Debug().Str("imageURL", imageURL).Msg("image generated")

	img, err := p.imageFetcher.FetchImage(ctx, imageURL)
	if err != nil {
		l.Error().Err(err).Str("imageURL", imageURL).Msg("image fetch failed")
		return nil, err
	}

	pixelated := p.imageConverter.Pixelate(img, request.PixelSize)

	reduced, err := p.imageConverter.ReduceColors(pixelated, request.NumColors)
	if err != nil {
		l.Error().Err(err).Msg("color reduction failed")
		return nil, err
	}

	data, err := p.imageConverter.EncodePNG(reduced)
	if err != nil {
		l.Error().Err(err).Msg("png encoding failed")
		return nil, err
	}

	l.Info().
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("image processed")

	return data, nil
}
