package auth

import (
	"context"
	"errors"
	"fmt"
	"pixify/internal/core/domain"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	msgExpired    = "Token is expired"
	msgClaims     = "Invalid claims"
	msgNoKey      = "Unable to find appropriate key"
	msgMalformed  = "Invalid header. Token malformed."
	msgParseToken = "Unable to parse authentication token"
)

// JWTVerifier verifies RS256 bearer tokens issued by an identity provider.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier fetches the provider's key set from https://<domain>/.well-known/jwks.json and keeps it
// refreshed in the background until ctx is done.
func NewJWKSVerifier(ctx context.Context, domain, audience string) (*JWTVerifier, error) {
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("error loading JWKS from %s: %w", jwksURL, err)
	}

	log.Info().Str("jwksURL", jwksURL).Msg("loaded JWKS")

	return NewJWTVerifier(k.Keyfunc, fmt.Sprintf("https://%s/", domain), audience), nil
}

func NewJWTVerifier(kf jwt.Keyfunc, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	claims := jwt.RegisteredClaims{}

	_, err := v.parser.ParseWithClaims(token, &claims, v.keyfunc)
	if err != nil {
		return "", &domain.AuthError{Message: authMessage(err), Err: err}
	}

	return claims.Subject, nil
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return msgMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return msgExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return msgClaims
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return msgNoKey
	default:
		return msgParseToken
	}
}
