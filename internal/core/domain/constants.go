package domain

import "errors"

var (
	ErrEmptyImageURL = errors.New("empty image URL in response")
	ErrNoImages      = errors.New("no images returned")
	ErrEmptyPalette  = errors.New("quantizer returned an empty palette")
)

const (
	MsgPromptRequired  = "Image prompt is required"
	MsgPixelSizeRange  = "Pixel size must be between 1 and 100"
	MsgNumColorsRange  = "Number of colors must be between 2 and 256"
	MsgSizeUnsupported = "Size must be 256x256, 512x512, or 1024x1024"
)
