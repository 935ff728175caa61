package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"pixify/internal/core/domain"

	"github.com/rs/zerolog/log"
)

const DefaultFALURL = "https://fal.run/fal-ai/flux/schnell"

// FAL provides a wrapper for the FAL image generation API.
type FAL struct {
	falAPIKey string
	endpoint  string
	client    *http.Client
}

func NewFAL(endpoint, apiKey string) *FAL {
	if endpoint == "" {
		endpoint = DefaultFALURL
	}

	return &FAL{
		falAPIKey: apiKey,
		endpoint:  endpoint,
		client:    &http.Client{},
	}
}

type imageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type imageGenerationRequest struct {
	Prompt    string          `json:"prompt"`
	NumImages int             `json:"num_images"`
	ImageSize imageDimensions `json:"image_size"`
}

type imageResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Prompt string `json:"prompt"`
}

func (f *FAL) GenerateFromPrompt(ctx context.Context, prompt string, size domain.ImageSize) (string, error) {
	width, height, ok := size.Dimensions()
	if !ok {
		return "", &domain.GenerationError{Err: fmt.Errorf("unsupported image size %q", size)}
	}

	falRequest := imageGenerationRequest{
		Prompt:    prompt,
		NumImages: 1,
		ImageSize: imageDimensions{Width: width, Height: height},
	}

	payloadBuf := new(bytes.Buffer)
	err := json.NewEncoder(payloadBuf).Encode(falRequest)
	if err != nil {
		return "", &domain.GenerationError{Err: fmt.Errorf("error encoding FAL request: %w", err)}
	}

	body, err := f.postFALRequest(ctx, payloadBuf)
	if err != nil {
		return "", &domain.GenerationError{Err: fmt.Errorf("FAL request failed: %w", err)}
	}

	log.Debug().Bytes("body", body).Msg("FAL imageResponse")

	var result imageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &domain.GenerationError{Err: fmt.Errorf("error unmarshalling FAL imageResponse: %w", err)}
	}

	if len(result.Images) == 0 {
		return "", &domain.GenerationError{Err: domain.ErrNoImages}
	}

	if result.Images[0].URL == "" {
		return "", &domain.GenerationError{Err: domain.ErrEmptyImageURL}
	}

	return result.Images[0].URL, nil
}

func (f *FAL) postFALRequest(ctx context.Context, payloadBuf *bytes.Buffer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, payloadBuf)
	if err != nil {
		log.Error().Err(err).Msg("error creating POST request for FAL")
		return nil, err
	}

	req.Header.Add("Authorization", "Key "+f.falAPIKey)
	req.Header.Add("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing FAL request: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading FAL response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected FAL status %d: %s", res.StatusCode, bytes.TrimSpace(body))
	}

	return body, nil
}
