package handler

import (
	"context"
	"errors"
	"net/http"
	"pixify/internal/core/domain"
	"pixify/internal/core/service"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const (
	requestIDKey contextKey = "requestId"
	subjectKey   contextKey = "subject"

	RequestIDHeader = "X-Request-ID"
)

// RequestID takes the request id from the X-Request-ID header or generates one, and exposes it on the
// context, the response headers and the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" {
			id, err := uuid.NewV4()
			if err == nil {
				rid = id.String()
			}
		}

		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		w.Header().Set(RequestIDHeader, rid)

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("requestId", rid)
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// AccessLog logs one line per request once the response has been written.
func AccessLog() func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	})
}

// Recoverer turns panics into a generic 500 response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			hlog.FromRequest(r).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")

			writeError(w, r, http.StatusInternalServerError, msgInternal)
		}()

		next.ServeHTTP(w, r)
	})
}

// Authenticate rejects requests without a valid bearer token and stores the verified subject on the context.
func Authenticate(authorizer service.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := authorizer.Authorize(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				message := msgUnauthorized
				var authErr *domain.AuthError
				if errors.As(err, &authErr) {
					message = authErr.Message
				}

				hlog.FromRequest(r).Warn().Err(err).Msg("rejected request")
				writeError(w, r, http.StatusUnauthorized, message)
				return
			}

			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("subject", subject)
			})

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(subjectKey).(string); ok {
		return v
	}
	return ""
}
