package domain

import "fmt"

// ValidationError reports a request parameter outside its accepted range or set.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError reports a rejected or missing bearer token.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// GenerationError wraps any failure of the upstream image generation API.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Failed to generate image: %s", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// FetchError wraps download and decode failures of the generated image.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("Failed to fetch image: %s", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ProcessingError wraps failures of the local image transforms and encoding.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("Failed to process image: %s", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
