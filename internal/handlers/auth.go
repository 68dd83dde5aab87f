package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wicart/storefront/internal/auth"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/metrics"
	"go.uber.org/zap"
)

const authFailedMessage = "Auth failed"

var (
	errMissingAuthorization = errors.New("missing authorization")
	errInvalidAuthorization = errors.New("invalid authorization")
)

// TokenVerifier checks a bearer token and returns the identity it asserts.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and otherwise
// stores the caller identity in the request context.
func RequireAuth(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, verifier)
			if err != nil {
				reason := rejectionReason(err)
				m.TokenRejected(reason)
				logger.From(r.Context()).Debug("request rejected", zap.String("reason", reason))
				writeError(w, http.StatusUnauthorized, authFailedMessage)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(zap.String("user_id", identity.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate never panics: a panic while reading the header or verifying
// the token becomes an error.
func authenticate(r *http.Request, verifier TokenVerifier) (identity auth.Identity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			identity = auth.Identity{}
			err = fmt.Errorf("verify panicked: %v", rec)
		}
	}()

	token, err := bearerToken(r)
	if err != nil {
		return auth.Identity{}, err
	}
	return verifier.Verify(token)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, errMissingAuthorization):
		return "missing"
	case errors.Is(err, errInvalidAuthorization), errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errMissingAuthorization
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errInvalidAuthorization
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errInvalidAuthorization
	}
	return token, nil
}
