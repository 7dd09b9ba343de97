package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"notekeeper/internal/auth"
	sl "notekeeper/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	Status string `json:"status"`
}

// New revokes every valid token of the caller. Logout always answers
// 200: logging out an unauthenticated or stale session is harmless.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := authService.Logout(ctx, r.Header.Get("Authorization")); err != nil {
			log.Error("logout failed", sl.Err(err))
		}

		render.JSON(w, r, Response{Status: "ok"})
	}
}
