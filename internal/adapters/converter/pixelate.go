package converter

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// Pixelate shrinks the image by pixelSize and scales it back to its original size. Both steps use
// nearest-neighbor so block edges stay hard. A pixelSize larger than a dimension collapses that dimension
// into a single block.
func (c *Converter) Pixelate(img image.Image, pixelSize int) *image.NRGBA {
	if pixelSize < 1 {
		pixelSize = 1
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth := max(1, width/pixelSize)
	newHeight := max(1, height/pixelSize)

	log.Debug().
		Int("width", width).
		Int("height", height).
		Int("blocksX", newWidth).
		Int("blocksY", newHeight).
		Msg("pixelating image")

	smaller := imaging.Resize(img, newWidth, newHeight, imaging.NearestNeighbor)
	return imaging.Resize(smaller, width, height, imaging.NearestNeighbor)
}
