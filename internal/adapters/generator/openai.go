package generator

import (
	"context"
	"pixify/internal/core/domain"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.CreateImageModelDallE2

type imageClient interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAI generates images through the OpenAI images API. The client is created once and shared.
type OpenAI struct {
	client imageClient
	model  string
}

// NewOpenAI creates an OpenAI generator. An empty baseURL keeps the library default, an empty model
// selects DefaultOpenAIModel.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenAI) GenerateFromPrompt(ctx context.Context, prompt string, size domain.ImageSize) (string, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.model,
		N:              1,
		Size:           string(size),
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}

	log.Debug().Str("model", o.model).Str("size", req.Size).Msg("sending OpenAI image request")

	resp, err := o.client.CreateImage(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("OpenAI image request failed")
		return "", &domain.GenerationError{Err: err}
	}

	if len(resp.Data) == 0 {
		return "", &domain.GenerationError{Err: domain.ErrNoImages}
	}

	if resp.Data[0].URL == "" {
		return "", &domain.GenerationError{Err: domain.ErrEmptyImageURL}
	}

	log.Debug().Str("revisedPrompt", resp.Data[0].RevisedPrompt).Msg("OpenAI image generated")

	return resp.Data[0].URL, nil
}
