package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"notekeeper/internal/auth"
	"notekeeper/internal/events"
	resp "notekeeper/internal/lib/api/response"
	sl "notekeeper/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=32"`
}

type Response struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	pub events.Publisher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Error(w, r, http.StatusBadRequest, "There must be a valid body in the request")

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			resp.ValidationError(w, r, validateErr)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		pair, err := authService.Register(ctx, req.Firstname, req.Lastname, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				resp.Error(w, r, http.StatusConflict, "Email already in use")

				return
			}

			log.Error("failed to register user", sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		events.Publish(ctx, log, pub, events.UserRegistered, req.Email)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}
