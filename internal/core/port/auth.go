package port

import "context"

type TokenVerifier interface {
	// Verify checks the signature and claims of a bearer token and returns its subject.
	Verify(ctx context.Context, token string) (string, error)
}
