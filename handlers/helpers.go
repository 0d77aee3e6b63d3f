package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/club-system/middleware"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

const maxJSONBodyBytes = 1_048_576

// exposeErrorDetails включается в APP_ENV=development: 500-ответы получают поле "details".
var exposeErrorDetails bool

func SetExposeErrorDetails(enabled bool) {
	exposeErrorDetails = enabled
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("nieprawidłowy JSON (znak %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("nieprawidłowy JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("nieprawidłowy typ pola %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("nieprawidłowy typ danych (znak %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("brak danych w żądaniu")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("żądanie nie może przekraczać %d bajtów", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("żądanie może zawierać tylko jeden obiekt JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// respond пишет JSON; ошибку сериализации уже некуда отдать клиенту, поэтому только логируем.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write JSON response", slog.Any("error", err))
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, jsonResponse{"message": message})
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	body := jsonResponse{"message": "Błąd serwera"}
	if exposeErrorDetails {
		body["details"] = err.Error()
	}
	respond(w, r, http.StatusInternalServerError, body)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrSquadNotFound),
		errors.Is(err, services.ErrStatisticNotFound):
		errorResponse(w, r, http.StatusNotFound, rootMessage(err))

	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrStatisticConflict):
		errorResponse(w, r, http.StatusConflict, rootMessage(err))

	// Сообщение валидации несет подробности ("błędne dane: ..."), отдаем его целиком.
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrUnsupportedFile):
		errorResponse(w, r, http.StatusBadRequest, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidResetToken),
		errors.Is(err, services.ErrEventNotTraining),
		errors.Is(err, services.ErrEventInvalidDates),
		errors.Is(err, services.ErrSquadLineupTooLarge),
		errors.Is(err, services.ErrSquadBenchTooLarge),
		errors.Is(err, services.ErrSquadDuplicate),
		errors.Is(err, services.ErrSquadInvalidPlayer),
		errors.Is(err, services.ErrTargetNotPlayer),
		errors.Is(err, services.ErrInvalidReportFormat),
		errors.Is(err, services.ErrNoRecipients):
		errorResponse(w, r, http.StatusBadRequest, rootMessage(err))

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrAuthenticationFailed):
		unauthorizedResponse(w, r, rootMessage(err))

	case errors.Is(err, services.ErrForbiddenOperation):
		errorResponse(w, r, http.StatusForbidden, err.Error())

	case errors.Is(err, services.ErrStorageDisabled):
		errorResponse(w, r, http.StatusServiceUnavailable, rootMessage(err))

	default:
		serverErrorResponse(w, r, err)
	}
}

// rootMessage снимает обертки fmt.Errorf, чтобы клиент видел текст sentinel-ошибки, а не внутренний контекст.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// currentPrincipal достает пользователя, положенного middleware.Authenticator.
func currentPrincipal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "Brak autoryzacji")
	}
	return p, ok
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("brak parametru %s w ścieżce", param)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("nieprawidłowy identyfikator %q", idStr)
	}
	return id, nil
}

func queryString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parametr %s musi być nieujemną liczbą", key)
	}
	return n, nil
}

func queryCategory(r *http.Request, key string) (*models.Category, error) {
	v := queryString(r, key)
	if v == nil {
		return nil, nil
	}
	c := models.Category(*v)
	if !c.Valid() {
		return nil, fmt.Errorf("nieprawidłowa kategoria %q", *v)
	}
	return &c, nil
}

func queryPosition(r *http.Request, key string) (*models.Position, error) {
	v := queryString(r, key)
	if v == nil {
		return nil, nil
	}
	p := models.Position(*v)
	if !p.Valid() {
		return nil, fmt.Errorf("nieprawidłowa pozycja %q", *v)
	}
	return &p, nil
}
