package port

import "image"

type ImageConverter interface {
	// Pixelate downsamples and upsamples the image with nearest-neighbor, keeping its dimensions.
	Pixelate(img image.Image, pixelSize int) *image.NRGBA
	// ReduceColors maps the image onto an adaptive palette of at most numColors entries.
	ReduceColors(img image.Image, numColors int) (*image.NRGBA, error)
	// EncodePNG returns the PNG encoding of the image.
	EncodePNG(img image.Image) ([]byte, error)
}
