package domain

type ImageSize string

const (
	Size256  ImageSize = "256x256"
	Size512  ImageSize = "512x512"
	Size1024 ImageSize = "1024x1024"
)

var supportedSizes = map[ImageSize]int{
	Size256:  256,
	Size512:  512,
	Size1024: 1024,
}

// Dimensions returns the square edge length in pixels, or false for sizes the service does not offer.
func (s ImageSize) Dimensions() (int, int, bool) {
	edge, ok := supportedSizes[s]
	return edge, edge, ok
}

const (
	DefaultPixelSize = 32
	DefaultNumColors = 256
	DefaultSize      = Size1024

	MinPixelSize = 1
	MaxPixelSize = 100
	MinNumColors = 2
	MaxNumColors = 256
)

// GenerationRequest holds validated pipeline parameters. Construct it with NewGenerationRequest.
type GenerationRequest struct {
	Prompt    string
	PixelSize int
	NumColors int
	Size      ImageSize
}
