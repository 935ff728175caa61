package converter

import (
	"bytes"
	"fmt"
	"image"
	"pixify/internal/core/domain"

	"github.com/disintegration/imaging"
)

// Converter implements the local image transforms of the pipeline. It holds no state and is safe for
// concurrent use.
type Converter struct{}

func NewConverter() *Converter {
	return &Converter{}
}

func (c *Converter) EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, &domain.ProcessingError{Err: fmt.Errorf("error encoding png: %w", err)}
	}

	return buf.Bytes(), nil
}

// ToRGB clones img into an NRGBA buffer and discards its alpha channel, keeping the straight color values.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}

	return dst
}
