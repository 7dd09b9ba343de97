package item

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
	SaveItem(ctx context.Context, item models.Item, userID int64) (models.Item, error)
	ItemByID(ctx context.Context, id, checklistID, userID int64) (models.Item, error)
	ItemsByChecklist(ctx context.Context, checklistID, userID int64) ([]models.Item, error)
	UpdateItem(ctx context.Context, item models.Item, userID int64) (models.Item, error)
	DeleteItem(ctx context.Context, id, checklistID, userID int64) error
}

type Request struct {
	Title    string `json:"title" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=PENDING COMPLETED"`
	Priority string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

type Response struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

func toResponse(i models.Item) Response {
	return Response{ID: i.ID, Title: i.Title, Status: i.Status, Priority: i.Priority}
}

func pathIDs(r *http.Request) (checklistID, itemID int64, err error) {
	checklistID, err = strconv.ParseInt(chi.URLParam(r, "checklistId"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if raw := chi.URLParam(r, "itemId"); raw != "" {
		itemID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, err
		}
	}
	return checklistID, itemID, nil
}

func List(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.List"

		user, _ := authn.FromContext(r.Context())

		checklistID, _, err := pathIDs(r)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid id")

			return
		}

		items, err := store.ItemsByChecklist(r.Context(), checklistID, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Checklist with id "+strconv.FormatInt(checklistID, 10)+" not found!")

				return
			}

			log.Error("failed to list items", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		out := make([]Response, 0, len(items))
		for _, i := range items {
			out = append(out, toResponse(i))
		}

		render.JSON(w, r, out)
	}
}

func Get(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Get"

		user, _ := authn.FromContext(r.Context())

		checklistID, itemID, err := pathIDs(r)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid id")

			return
		}

		item, err := store.ItemByID(r.Context(), itemID, checklistID, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) || errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Item with id "+strconv.FormatInt(itemID, 10)+" not found!")

				return
			}

			log.Error("failed to get item", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(item))
	}
}

func Create(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Create"

		user, _ := authn.FromContext(r.Context())

		checklistID, _, err := pathIDs(r)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid id")

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

		if req.Status == "" {
			req.Status = models.ItemStatusPending
		}
		if req.Priority == "" {
			req.Priority = models.ItemPriorityMedium
		}

		now := time.Now()
		item, err := store.SaveItem(r.Context(), models.Item{
			Title:       req.Title,
			Status:      req.Status,
			Priority:    req.Priority,
			ChecklistID: checklistID,
			Created:     now,
			Updated:     now,
		}, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Checklist with id "+strconv.FormatInt(checklistID, 10)+" not found!")

				return
			}

			log.Error("failed to create item", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, toResponse(item))
	}
}

func Update(log *slog.Logger, validate *validator.Validate, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Update"

		user, _ := authn.FromContext(r.Context())

		checklistID, itemID, err := pathIDs(r)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid id")

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

		if req.Status == "" {
			req.Status = models.ItemStatusPending
		}
		if req.Priority == "" {
			req.Priority = models.ItemPriorityMedium
		}

		item, err := store.UpdateItem(r.Context(), models.Item{
			ID:          itemID,
			Title:       req.Title,
			Status:      req.Status,
			Priority:    req.Priority,
			ChecklistID: checklistID,
			Updated:     time.Now(),
		}, user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) || errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Item with id "+strconv.FormatInt(itemID, 10)+" not found!")

				return
			}

			log.Error("failed to update item", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		render.JSON(w, r, toResponse(item))
	}
}

func Delete(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.item.Delete"

		user, _ := authn.FromContext(r.Context())

		checklistID, itemID, err := pathIDs(r)
		if err != nil {
			resp.Error(w, r, http.StatusBadRequest, "Invalid id")

			return
		}

		if err := store.DeleteItem(r.Context(), itemID, checklistID, user.ID); err != nil {
			if errors.Is(err, storage.ErrItemNotFound) || errors.Is(err, storage.ErrChecklistNotFound) {
				resp.Error(w, r, http.StatusNotFound, "Item with id "+strconv.FormatInt(itemID, 10)+" not found!")

				return
			}

			log.Error("failed to delete item", slog.String("op", op), sl.Err(err))

			resp.Error(w, r, http.StatusInternalServerError, "Internal error")

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
