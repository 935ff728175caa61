package service

import (
	"context"
	"errors"
	"pixify/internal/core/domain"
	"pixify/internal/core/port"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	msgHeaderMissing   = "Authorization header is missing"
	msgMustStartBearer = "Authorization header must start with Bearer"
	msgTokenNotFound   = "Token not found"
	msgMustBeBearer    = "Authorization header must be Bearer token"
	msgMissingSubject  = "Token has no subject"
)

type Authorizer interface {
	Authorize(ctx context.Context, authHeader string) (string, error)
}

// TokenAuthorizer validates Authorization headers against a TokenVerifier.
type TokenAuthorizer struct {
	verifier port.TokenVerifier
}

func NewAuthorizer(verifier port.TokenVerifier) *TokenAuthorizer {
	return &TokenAuthorizer{verifier: verifier}
}

// Authorize returns the verified subject of a "Bearer <token>" header. Every failure is an *domain.AuthError.
func (a *TokenAuthorizer) Authorize(ctx context.Context, authHeader string) (string, error) {
	token, err := ExtractBearerToken(authHeader)
	if err != nil {
		return "", err
	}

	subject, err := a.verifier.Verify(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("token verification failed")
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return "", authErr
		}
		return "", &domain.AuthError{Message: "Unable to parse authentication token", Err: err}
	}

	if subject == "" {
		return "", &domain.AuthError{Message: msgMissingSubject}
	}

	return subject, nil
}

func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", &domain.AuthError{Message: msgHeaderMissing}
	}

	parts := strings.Fields(authHeader)
	switch {
	case len(parts) == 0 || !strings.EqualFold(parts[0], "bearer"):
		return "", &domain.AuthError{Message: msgMustStartBearer}
	case len(parts) == 1:
		return "", &domain.AuthError{Message: msgTokenNotFound}
	case len(parts) > 2:
		return "", &domain.AuthError{Message: msgMustBeBearer}
	}

	return parts[1], nil
}
