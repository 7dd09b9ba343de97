package checklist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"notekeeper/internal/http_server/middleware/authn"
	resp "notekeeper/internal/lib/api/response"
	sl "notekeeper/internal/lib/logger"
	"notekeeper/internal/models"
	"notekeeper/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Store interface {
	SaveChecklist(ctx context.Context, checklist models.Checklist) (models.Checklist, error)
	ChecklistByID(ctx context.Context, id, userID int64) (models.Checklist, error)
	ChecklistsByUser(ctx context.Context, userID int64) ([]models.Checklist, error)
	UpdateChecklist(ctx context.Context, id, userID int64, title string, updated time.Time) (models.Checklist, error)
	DeleteChecklist(ctx context.Context, id, userID int64) error
}

type Request struct {
	Title string `json:"title" validate:"required"`
}

type Response struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func toResponse(c models.Checklist) Response {
	return Response{ID: c.ID, Title: c.Title, Created: c.Created, Updated: c.Updated}
}

func List(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.List"

		user, _ := authn.FromContext(r.Context())

		checklists, err := store.ChecklistsByUser(r.Context(), user.ID)
		if err != nil {
			log.Error("failed to list checklists", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		out := make([]Response, 0, len(checklists))
		for _, c := range checklists {
			out = append(out, toResponse(c))
		}

		render.JSON(w, r, out)
	}
}

func Get(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.Get"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "checklistId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid checklist id")

			return
		}

		checklist, err := store.ChecklistByID(r.Context(), id, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Checklist with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to get checklist", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(checklist))
	}
}

func Create(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.Create"

		user, _ := authn.FromContext(r.Context())

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.Error(w, r, http.StatusBadRequest, "There must be a valid body in the request")

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.ValidationError(w, r, err.(validator.ValidationErrors))

			return
		}

		now := time.Now()
		checklist, err := store.SaveChecklist(r.Context(), models.Checklist{
			Title:   req.Title,
			Created: now,
			Updated: now,
			UserID:  user.ID,
		})
		if err != nil {
			log.Error("failed to create checklist", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, toResponse(checklist))
	}
}

func Update(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.Update"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "checklistId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid checklist id")

			return
		}

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.Error(w, r, http.StatusBadRequest, "There must be a valid body in the request")

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.ValidationError(w, r, err.(validator.ValidationErrors))

			return
		}

		checklist, err := store.UpdateChecklist(r.Context(), id, user.ID, req.Title, time.Now())
		if err != nil {
			if errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Checklist with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to update checklist", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(checklist))
	}
}

func Delete(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checklist.Delete"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "checklistId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid checklist id")

			return
		}

		if err := store.DeleteChecklist(r.Context(), id, user.ID); err != nil {
			if errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Checklist with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to delete checklist", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
