package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"pixify/internal/core/domain"
	"pixify/internal/core/port"
	"pixify/internal/core/service"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	DefaultMaxBodyBytes = 16 << 20

	msgInternal     = "internal server error"
	msgUnauthorized = "Unauthorized"

	pngDataURIPrefix = "data:image/png;base64,"
)

type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Image serves the pixelated image endpoints.
type Image struct {
	processor    port.ImageProcessor
	maxBodyBytes int64
}

func NewImage(processor port.ImageProcessor, maxBodyBytes int64) *Image {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	return &Image{processor: processor, maxBodyBytes: maxBodyBytes}
}

// NewRouter wires middleware and routes. Only the generation endpoint requires authentication.
func NewRouter(logger zerolog.Logger, processor port.ImageProcessor, authorizer service.Authorizer,
	opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := NewImage(processor, opts.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger), RequestID, AccessLog(), Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", Root)
	r.Get("/api/status", Status)

	r.With(Authenticate(authorizer)).Post("/api/generate_pixelated_image", h.GeneratePixelatedImage)

	return r
}

func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Pixify API running"})
}

func Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "okeydokey-pixify"})
}

type generateRequest struct {
	Prompt    string  `json:"prompt"`
	PixelSize *lenientInt `json:"pixel_size"`
	NumColors *lenientInt `json:"num_colors"`
	Size      *string     `json:"size"`
}

// lenientInt accepts integers sent as JSON numbers or numeric strings. Fractions are truncated toward zero.
type lenientInt int

func (l *lenientInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if n, err := strconv.Atoi(raw); err == nil {
			*l = lenientInt(n)
			return nil
		}
		return fmt.Errorf("invalid integer %q", unquoted)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*l = lenientInt(n)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", raw)
	}
	if math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("integer %s out of range", raw)
	}

	*l = lenientInt(math.Trunc(f))
	return nil
}

// toDomain applies defaults for omitted fields and validates the result.
func (g generateRequest) toDomain() (domain.GenerationRequest, error) {
	pixelSize := domain.DefaultPixelSize
	if g.PixelSize != nil {
		pixelSize = int(*g.PixelSize)
	}

	numColors := domain.DefaultNumColors
	if g.NumColors != nil {
		numColors = int(*g.NumColors)
	}

	size := string(domain.DefaultSize)
	if g.Size != nil {
		size = *g.Size
	}

	return domain.NewGenerationRequest(g.Prompt, pixelSize, numColors, size)
}

func (h *Image) GeneratePixelatedImage(w http.ResponseWriter, r *http.Request) {
	l := hlog.FromRequest(r)

	var payload generateRequest
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		l.Debug().Err(err).Msg("invalid request body")
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid parameter: %s", err))
		return
	}

	request, err := payload.toDomain()
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			l.Debug().Str("field", validationErr.Field).Msg("request rejected")
			writeError(w, r, http.StatusBadRequest, validationErr.Message)
			return
		}
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid parameter: %s", err))
		return
	}

	data, err := h.processor.ProcessImage(r.Context(), request)
	if err != nil {
		status, message := errorResponse(err)
		l.Error().Err(err).Int("status", status).Msg("failed to process image")
		writeError(w, r, status, message)
		return
	}

	writeJSON(w, r, http.StatusOK, imageResponse{
		Success:   true,
		ImageData: pngDataURIPrefix + base64.StdEncoding.EncodeToString(data),
	})
}

func errorResponse(err error) (int, string) {
	var (
		validationErr *domain.ValidationError
		generationErr *domain.GenerationError
		fetchErr      *domain.FetchError
		processingErr *domain.ProcessingError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &generationErr), errors.As(err, &fetchErr), errors.As(err, &processingErr):
		return http.StatusInternalServerError, fmt.Sprintf("Error generating image: %s", err)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
