package domain

import "strings"

// NewGenerationRequest validates the raw parameters in a fixed order and reports the first offending field.
func NewGenerationRequest(prompt string, pixelSize, numColors int, size string) (GenerationRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return GenerationRequest{}, &ValidationError{Field: "prompt", Message: MsgPromptRequired}
	}

	if pixelSize < MinPixelSize || pixelSize > MaxPixelSize {
		return GenerationRequest{}, &ValidationError{Field: "pixel_size", Message: MsgPixelSizeRange}
	}

	if numColors < MinNumColors || numColors > MaxNumColors {
		return GenerationRequest{}, &ValidationError{Field: "num_colors", Message: MsgNumColorsRange}
	}

	imageSize := ImageSize(size)
	if _, _, ok := imageSize.Dimensions(); !ok {
		return GenerationRequest{}, &ValidationError{Field: "size", Message: MsgSizeUnsupported}
	}

	return GenerationRequest{
		Prompt:    prompt,
		PixelSize: pixelSize,
		NumColors: numColors,
		Size:      imageSize,
	}, nil
}
