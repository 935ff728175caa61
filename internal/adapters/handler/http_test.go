package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"pixify/internal/core/domain"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessImage(ctx context.Context, request domain.GenerationRequest) ([]byte, error) {
	args := m.Called(ctx, request)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, authHeader string) (string, error) {
	args := m.Called(ctx, authHeader)
	return args.String(0), args.Error(1)
}

const validHeader = "Bearer valid"

func newTestRouter(processor *MockProcessor, authorizer *MockAuthorizer) http.Handler {
	return NewRouter(zerolog.Nop(), processor, authorizer, Options{})
}

func allowAll(authorizer *MockAuthorizer) {
	authorizer.On("Authorize", mock.Anything, validHeader).Return("user-1", nil)
}

func doRequest(t *testing.T, h http.Handler, method, path, body, authHeader string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}

	return rec, decoded
}

func TestRootAndStatus(t *testing.T) {
	h := newTestRouter(&MockProcessor{}, &MockAuthorizer{})

	rec, body := doRequest(t, h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Pixify API running", body["message"])

	rec, body = doRequest(t, h, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "okeydokey-pixify", body["status"])
}

func TestGenerateSuccess(t *testing.T) {
	processor := &MockProcessor{}
	authorizer := &MockAuthorizer{}
	allowAll(authorizer)

	png := []byte{0x89, 'P', 'N', 'G'}
	expected := domain.GenerationRequest{Prompt: "a cat", PixelSize: 16, NumColors: 8, Size: domain.Size512}
	processor.On("ProcessImage", mock.Anything, expected).Return(png, nil).Once()

	h := newTestRouter(processor, authorizer)
	rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image",
		`{"prompt":"  a cat ","pixel_size":16,"num_colors":8,"size":"512x512"}`, validHeader)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")

	data, ok := body["image_data"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(data, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(data, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, png, decoded)

	processor.AssertExpectations(t)
}

func TestGenerateAppliesDefaults(t *testing.T) {
	processor := &MockProcessor{}
	authorizer := &MockAuthorizer{}
	allowAll(authorizer)

	expected := domain.GenerationRequest{
		Prompt:    "castle",
		PixelSize: domain.DefaultPixelSize,
		NumColors: domain.DefaultNumColors,
		Size:      domain.DefaultSize,
	}
	processor.On("ProcessImage", mock.Anything, expected).Return([]byte("img"), nil).Once()

	h := newTestRouter(processor, authorizer)
	rec, _ := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", `{"prompt":"castle"}`, validHeader)

	assert.Equal(t, http.StatusOK, rec.Code)
	processor.AssertExpectations(t)
}

func TestGenerateRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing prompt", body: `{"pixel_size":8}`, message: domain.MsgPromptRequired},
		{name: "blank prompt", body: `{"prompt":"   "}`, message: domain.MsgPromptRequired},
		{name: "pixel size zero", body: `{"prompt":"x","pixel_size":0}`, message: domain.MsgPixelSizeRange},
		{name: "pixel size too large", body: `{"prompt":"x","pixel_size":101}`, message: domain.MsgPixelSizeRange},
		{name: "one color", body: `{"prompt":"x","num_colors":1}`, message: domain.MsgNumColorsRange},
		{name: "too many colors", body: `{"prompt":"x","num_colors":257}`, message: domain.MsgNumColorsRange},
		{name: "bad size", body: `{"prompt":"x","size":"300x300"}`, message: domain.MsgSizeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockProcessor{}
			authorizer := &MockAuthorizer{}
			allowAll(authorizer)

			h := newTestRouter(processor, authorizer)
			rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", tt.body, validHeader)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
			processor.AssertNotCalled(t, "ProcessImage", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateCoercesNumericParameters(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		pixelSize int
		numColors int
	}{
		{name: "numeric strings", body: `{"prompt":"cat","pixel_size":"16","num_colors":" 8 "}`, pixelSize: 16, numColors: 8},
		{name: "whole floats", body: `{"prompt":"cat","pixel_size":32.0,"num_colors":64.0}`, pixelSize: 32, numColors: 64},
		{name: "fractions truncate", body: `{"prompt":"cat","pixel_size":12.9,"num_colors":2.5}`, pixelSize: 12, numColors: 2},
		{name: "null keeps default", body: `{"prompt":"cat","pixel_size":null,"num_colors":null}`,
			pixelSize: domain.DefaultPixelSize, numColors: domain.DefaultNumColors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockProcessor{}
			authorizer := &MockAuthorizer{}
			allowAll(authorizer)

			expected := domain.GenerationRequest{
				Prompt:    "cat",
				PixelSize: tt.pixelSize,
				NumColors: tt.numColors,
				Size:      domain.DefaultSize,
			}
			processor.On("ProcessImage", mock.Anything, expected).Return([]byte("img"), nil).Once()

			h := newTestRouter(processor, authorizer)
			rec, _ := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", tt.body, validHeader)

			assert.Equal(t, http.StatusOK, rec.Code)
			processor.AssertExpectations(t)
		})
	}
}

func TestGenerateCoercedValuesAreValidated(t *testing.T) {
	processor := &MockProcessor{}
	authorizer := &MockAuthorizer{}
	allowAll(authorizer)

	h := newTestRouter(processor, authorizer)
	rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image",
		`{"prompt":"cat","pixel_size":"0"}`, validHeader)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.MsgPixelSizeRange, body["error"])
	processor.AssertNotCalled(t, "ProcessImage", mock.Anything, mock.Anything)
}

func TestGenerateMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `prompt=cat`},
		{name: "wrong type", body: `{"prompt":"cat","pixel_size":"big"}`},
		{name: "boolean number", body: `{"prompt":"cat","num_colors":true}`},
		{name: "float string", body: `{"prompt":"cat","pixel_size":"16.5"}`},
		{name: "out of range float", body: `{"prompt":"cat","pixel_size":1e300}`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockProcessor{}
			authorizer := &MockAuthorizer{}
			allowAll(authorizer)

			h := newTestRouter(processor, authorizer)
			rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", tt.body, validHeader)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.HasPrefix(body["error"].(string), "Invalid parameter: "))
			processor.AssertNotCalled(t, "ProcessImage", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateBodyTooLarge(t *testing.T) {
	processor := &MockProcessor{}
	authorizer := &MockAuthorizer{}
	allowAll(authorizer)

	h := NewRouter(zerolog.Nop(), processor, authorizer, Options{MaxBodyBytes: 32})
	payload := `{"prompt":"` + strings.Repeat("a", 64) + `"}`

	rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", payload, validHeader)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	processor.AssertNotCalled(t, "ProcessImage", mock.Anything, mock.Anything)
}

func TestGeneratePipelineErrors(t *testing.T) {
	cause := errors.New("upstream exploded")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "generation",
			err:     &domain.GenerationError{Err: cause},
			status:  http.StatusInternalServerError,
			message: "Error generating image: Failed to generate image: upstream exploded",
		},
		{
			name:    "fetch",
			err:     &domain.FetchError{Err: cause},
			status:  http.StatusInternalServerError,
			message: "Error generating image: Failed to fetch image: upstream exploded",
		},
		{
			name:    "processing",
			err:     &domain.ProcessingError{Err: cause},
			status:  http.StatusInternalServerError,
			message: "Error generating image: Failed to process image: upstream exploded",
		},
		{
			name:    "unexpected",
			err:     cause,
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockProcessor{}
			authorizer := &MockAuthorizer{}
			allowAll(authorizer)
			processor.On("ProcessImage", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			h := newTestRouter(processor, authorizer)
			rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", `{"prompt":"x"}`, validHeader)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, body, "image_data")
		})
	}
}

func TestGenerateUnauthorized(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "auth error", err: &domain.AuthError{Message: "Token is expired"}, message: "Token is expired"},
		{name: "other error", err: errors.New("boom"), message: "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &MockProcessor{}
			authorizer := &MockAuthorizer{}
			authorizer.On("Authorize", mock.Anything, "Bearer nope").Return("", tt.err)

			h := newTestRouter(processor, authorizer)
			rec, body := doRequest(t, h, http.MethodPost, "/api/generate_pixelated_image", `{"prompt":"x"}`, "Bearer nope")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.message, body["error"])
			processor.AssertNotCalled(t, "ProcessImage", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateStoresSubject(t *testing.T) {
	processor := &MockProcessor{}
	authorizer := &MockAuthorizer{}
	allowAll(authorizer)

	processor.On("ProcessImage", mock.MatchedBy(func(ctx context.Context) bool {
		return subjectFromContext(ctx) == "user-1" && requestIDFromContext(ctx) == "req-42"
	}), mock.Anything).Return([]byte("ok"), nil).Once()

	h := newTestRouter(processor, authorizer)

	req := httptest.NewRequest(http.MethodPost, "/api/generate_pixelated_image", bytes.NewBufferString(`{"prompt":"x"}`))
	req.Header.Set("Authorization", validHeader)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	processor.AssertExpectations(t)
}

func TestRequestIDGenerated(t *testing.T) {
	h := newTestRouter(&MockProcessor{}, &MockAuthorizer{})

	rec, _ := doRequest(t, h, http.MethodGet, "/api/status", "", "")

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestStatusDoesNotRequireAuth(t *testing.T) {
	authorizer := &MockAuthorizer{}
	h := newTestRouter(&MockProcessor{}, authorizer)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/status", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(zerolog.Nop(), &MockProcessor{}, &MockAuthorizer{}, Options{
		AllowedOrigins: []string{"https://pixify.example"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate_pixelated_image", nil)
	req.Header.Set("Origin", "https://pixify.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://pixify.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRecovererReturnsInternalError(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec, body := doRequest(t, h, http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
}
