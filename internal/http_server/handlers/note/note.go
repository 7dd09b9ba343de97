package note

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
	SaveNote(ctx context.Context, note models.TextNote) (models.TextNote, error)
	NoteByID(ctx context.Context, id, userID int64) (models.TextNote, error)
	NotesByUser(ctx context.Context, userID int64) ([]models.TextNote, error)
	UpdateNote(ctx context.Context, note models.TextNote) (models.TextNote, error)
	DeleteNote(ctx context.Context, id, userID int64) error
}

type Request struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

type Response struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func toResponse(n models.TextNote) Response {
	return Response{ID: n.ID, Title: n.Title, Content: n.Content, Created: n.Created, Updated: n.Updated}
}

func List(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.List"

		user, _ := authn.FromContext(r.Context())

		notes, err := store.NotesByUser(r.Context(), user.ID)
		if err != nil {
			log.Error("failed to list notes", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		out := make([]Response, 0, len(notes))
		for _, n := range notes {
			out = append(out, toResponse(n))
		}

		render.JSON(w, r, out)
	}
}

func Get(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Get"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "noteId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid note id")

			return
		}

		n, err := store.NoteByID(r.Context(), id, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Note with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to get note", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(n))
	}
}

func Create(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Create"

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
		n, err := store.SaveNote(r.Context(), models.TextNote{
			Title:   req.Title,
			Content: req.Content,
			Created: now,
			Updated: now,
			UserID:  user.ID,
		})
		if err != nil {
			log.Error("failed to create note", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, toResponse(n))
	}
}

func Update(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Update"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "noteId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid note id")

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

		n, err := store.UpdateNote(r.Context(), models.TextNote{
			ID:      id,
			Title:   req.Title,
			Content: req.Content,
			Updated: time.Now(),
			UserID:  user.ID,
		})
		if err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Note with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to update note", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(n))
	}
}

func Delete(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Delete"

		user, _ := authn.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "noteId"), 10, 64)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid note id")

			return
		}

		if err := store.DeleteNote(r.Context(), id, user.ID); err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Note with id "+strconv.FormatInt(id, 10)+" not found!")

				return
			}

			log.Error("failed to delete note", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
