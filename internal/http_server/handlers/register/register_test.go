package register_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"notekeeper/internal/auth"
	"notekeeper/internal/events"
	"notekeeper/internal/http_server/handlers/register"
	resp "notekeeper/internal/lib/api/response"
	"notekeeper/internal/lib/jwt"
	"notekeeper/internal/storage/memory"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	store := memory.New()
	codec := jwt.NewCodec("test-secret-that-is-long-enough")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := auth.New(log, store, store, codec, time.Hour, 24*time.Hour)

	return register.New(log, validator.New(), authService, events.NopPublisher{})
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	rec := post(t, handler, `{"firstname":"John","lastname":"Doe","email":"a@x.com","password":"password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body register.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEmpty(t, body.RefreshToken)
	assert.NotEqual(t, body.AccessToken, body.RefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	payload := `{"firstname":"John","lastname":"Doe","email":"a@x.com","password":"password1"}`

	rec := post(t, handler, payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(t, handler, payload)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body resp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusConflict, body.Status)
	assert.Equal(t, "Email already in use", body.Message)
	assert.Equal(t, "/api/v1/auth/register", body.Path)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	cases := []struct {
		name     string
		body     string
		messages int
	}{
		{
			name:     "missing everything",
			body:     `{}`,
			messages: 4,
		},
		{
			name:     "bad email",
			body:     `{"firstname":"John","lastname":"Doe","email":"not-an-email","password":"password1"}`,
			messages: 1,
		},
		{
			name:     "short password",
			body:     `{"firstname":"John","lastname":"Doe","email":"a@x.com","password":"short"}`,
			messages: 1,
		},
		{
			name:     "long password",
			body:     `{"firstname":"John","lastname":"Doe","email":"a@x.com","password":"` + strings.Repeat("p", 33) + `"}`,
			messages: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, handler, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body resp.ValidationErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Len(t, body.Messages, tc.messages)
		})
	}
}

func TestRegister_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	// Each request must see only its own request-scoped logger state;
	// the race detector flags the handler if requests share it.
	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			body := fmt.Sprintf(
				`{"firstname":"John","lastname":"Doe","email":"user%d@x.com","password":"password1"}`, i,
			)
			rec := post(t, handler, body)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "request %d", i)
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	rec := post(t, handler, `{"firstname":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body resp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "There must be a valid body in the request", body.Message)
}
