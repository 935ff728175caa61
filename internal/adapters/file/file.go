package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"pixify/internal/adapters/converter"
	"pixify/internal/core/domain"
	"time"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const DownloadTimeout = 60 * time.Second

// Fetcher downloads generated images. The underlying client is shared between requests.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: DownloadTimeout}}
}

// DownloadFile returns the byte content of a file on a provided URL.
func (f *Fetcher) DownloadFile(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		err = fmt.Errorf("error creating request: %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request: %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("error reading response: %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	return buf, nil
}

// FetchImage downloads and decodes the image at url and normalizes it to opaque RGB.
func (f *Fetcher) FetchImage(ctx context.Context, url string) (*image.NRGBA, error) {
	data, err := f.DownloadFile(ctx, url)
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		err = fmt.Errorf("error decoding image: %w", err)
		log.Error().Err(err).Int("bytes", len(data)).Send()
		return nil, &domain.FetchError{Err: err}
	}

	log.Debug().
		Str("format", format).
		Int("bytes", len(data)).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("decoded image")

	return converter.ToRGB(img), nil
}
