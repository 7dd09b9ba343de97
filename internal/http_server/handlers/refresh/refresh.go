package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"notekeeper/internal/auth"
	resp "notekeeper/internal/lib/api/response"
	sl "notekeeper/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// New exchanges the refresh token in the Authorization header for a
// fresh pair.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		pair, err := authService.RefreshFromHeader(ctx, r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrAuthMissing):
				resp.Error(w, r, http.StatusUnauthorized, "Authentication not found!")
			case errors.Is(err, auth.ErrTokenInvalid):
				resp.Error(w, r, http.StatusUnauthorized, "Token not valid!")
			case errors.Is(err, auth.ErrUserNotFound):
				// Surfaced as an auth failure, not a 404, so the
				// endpoint does not leak account existence.
				resp.Error(w, r, http.StatusUnauthorized, "Token not valid!")
			default:
				log.Error("failed to refresh tokens", sl.Err(err))

				resp.Error(w, r, http.StatusInternalServerError, "Internal error")
			}

			return
		}

		render.JSON(w, r, Response{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}
