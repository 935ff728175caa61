package converter

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"pixify/internal/core/domain"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"
)

// ReduceColors builds a median cut palette of at most numColors entries, maps every pixel to its nearest
// palette entry without dithering and returns the result as full RGB.
func (c *Converter) ReduceColors(img image.Image, numColors int) (*image.NRGBA, error) {
	if numColors < 1 {
		return nil, &domain.ProcessingError{Err: fmt.Errorf("invalid palette size %d", numColors)}
	}

	rgb := ToRGB(img)

	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	palette := q.Quantize(make(color.Palette, 0, numColors), rgb)
	if len(palette) == 0 {
		return nil, &domain.ProcessingError{Err: domain.ErrEmptyPalette}
	}

	if len(palette) > numColors {
		palette = palette[:numColors]
	}

	if e := log.Debug(); e.Enabled() {
		e.Int("requested", numColors).
			Int("colors", len(palette)).
			Strs("palette", PaletteHex(palette)).
			Msg("built color palette")
	}

	paletted := image.NewPaletted(rgb.Bounds(), palette)
	draw.Draw(paletted, paletted.Bounds(), rgb, rgb.Bounds().Min, draw.Src)

	return ToRGB(paletted), nil
}

// PaletteHex returns the palette entries as #rrggbb strings.
func PaletteHex(palette color.Palette) []string {
	hex := make([]string, 0, len(palette))
	for _, c := range palette {
		cf, _ := colorful.MakeColor(c)
		hex = append(hex, cf.Hex())
	}

	return hex
}
