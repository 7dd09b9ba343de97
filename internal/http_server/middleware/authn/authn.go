// Package authn authenticates inbound requests from a bearer access
// token. The outcome of validation is an explicit value, not an
// exception path, and the principal travels in the request context.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "notekeeper/internal/lib/api/response"
	"notekeeper/internal/lib/jwt"
	"notekeeper/internal/models"
	"notekeeper/internal/storage"
)

const bearerPrefix = "Bearer "

type ctxKey struct{}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type TokenProvider interface {
	TokenByValue(ctx context.Context, value string) (models.Token, error)
}

type outcome struct {
	authenticated bool
	user          models.User
	reason        string
}

func authenticated(user models.User) outcome {
	return outcome{authenticated: true, user: user}
}

func unauthenticated(reason string) outcome {
	return outcome{reason: reason}
}

// Middleware resolves the caller's identity when a bearer token is
// presented. It never rejects by itself: a missing, malformed, expired,
// revoked, or wrong-kind token only means no principal is attached,
// with the reason going to the log. RequireAuth turns the absence of a
// principal into a 401.
func Middleware(log *slog.Logger, codec *jwt.Codec, users UserProvider, tokens TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.Middleware"

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimPrefix(authHeader, bearerPrefix)

			out := validate(r.Context(), codec, users, tokens, raw)
			if !out.authenticated {
				log.Debug("request not authenticated",
					slog.String("op", op),
					slog.String("reason", out.reason),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, out.user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validate runs the full check chain: token kind must be access, the
// subject must resolve to a user, the ledger row must exist unrevoked,
// and the strict codec check must pass. The ledger is never mutated
// here.
func validate(ctx context.Context, codec *jwt.Codec, users UserProvider, tokens TokenProvider, raw string) outcome {
	kind, err := codec.Kind(raw)
	if err != nil {
		// Expired and malformed tokens both pass through
		// unauthenticated; only the log tells them apart.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return unauthenticated("token expired")
		}
		return unauthenticated("token malformed")
	}
	if kind != jwt.KindAccess {
		return unauthenticated("not an access token")
	}

	subject, err := codec.Subject(raw)
	if err != nil || subject == "" {
		return unauthenticated("token malformed")
	}

	user, err := users.UserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return unauthenticated("unknown subject")
		}
		return unauthenticated("user lookup failed: " + err.Error())
	}

	stored, err := tokens.TokenByValue(ctx, raw)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return unauthenticated("token not in ledger")
		}
		return unauthenticated("ledger lookup failed: " + err.Error())
	}
	if stored.Revoked {
		return unauthenticated("token revoked")
	}

	if !codec.Valid(raw, user.Email) {
		return unauthenticated("token failed validation")
	}

	return authenticated(user)
}

// RequireAuth rejects requests that carry no principal.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				resp.Error(w, r, http.StatusUnauthorized, "Authentication not found!")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromContext returns the authenticated user attached by Middleware.
func FromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}
