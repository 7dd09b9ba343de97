package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	TimeStamp time.Time `json:"timeStamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// ValidationErrorResponse carries one message per failed field.
type ValidationErrorResponse struct {
	TimeStamp time.Time `json:"timeStamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Messages  []string  `json:"messages"`
	Path      string    `json:"path"`
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		TimeStamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

func ValidationError(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	messages := make([]string, 0, len(errs))

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ValidationErrorResponse{
		TimeStamp: time.Now(),
		Status:    http.StatusBadRequest,
		Error:     http.StatusText(http.StatusBadRequest),
		Messages:  messages,
		Path:      r.URL.Path,
	})
}
