package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{
		eventService: es,
	}
}

// CreateEvent godoc
// @Summary Создать событие (PREZES, TRENER). У тренера категория всегда своя
// @Tags events
// @Accept json
// @Produce json
// @Param input body services.CreateEventInput true "Данные события"
// @Success 201 {object} models.Event
// @Failure 400,403 {object} map[string]string
// @Security BearerAuth
// @Router /wydarzenia [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), principal, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary Список видимых событий, без состава
// @Tags events
// @Produce json
// @Param typ query string false "Тип события"
// @Param from query string false "Начало периода (RFC3339 или YYYY-MM-DD)"
// @Param to query string false "Конец периода"
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Router /wydarzenia [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var query services.EventListQuery
	if v := queryString(r, "typ"); v != nil {
		t := models.EventType(*v)
		if !t.Valid() {
			badRequestResponse(w, r, fmt.Errorf("nieprawidłowy typ wydarzenia %q", *v))
			return
		}
		query.Type = &t
	}
	var err error
	if query.From, err = queryTime(r, "from"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.To, err = queryTime(r, "to"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	events, err := h.eventService.List(r.Context(), principal, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	respond(w, r, http.StatusOK, events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), principal, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Update(r.Context(), principal, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), principal, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Wydarzenie usunięte"})
}

// rsvpRequest принимает обе формы: {"wezmieUdzial": true} и {"odpowiedz": "TAK"}.
type rsvpRequest struct {
	Attending *bool   `json:"wezmieUdzial"`
	Answer    *string `json:"odpowiedz"`
}

func (req rsvpRequest) status() (models.AttendanceStatus, error) {
	if req.Attending != nil {
		return models.AttendanceFromBool(*req.Attending), nil
	}
	if req.Answer != nil {
		s := models.AttendanceStatus(strings.ToUpper(strings.TrimSpace(*req.Answer)))
		if s == models.AttendanceYes || s == models.AttendanceNo {
			return s, nil
		}
		return "", fmt.Errorf("nieprawidłowa odpowiedź %q", *req.Answer)
	}
	return "", errors.New("wymagane pole wezmieUdzial")
}

// RespondToEvent godoc
// @Summary Ответ игрока на тренировку (TAK/NIE), повторный ответ перезаписывает статус
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "ID события"
// @Param input body rsvpRequest true "wezmieUdzial или odpowiedz"
// @Success 200 {object} map[string]string
// @Failure 400,403,404 {object} map[string]string
// @Security BearerAuth
// @Router /wydarzenia/{id}/udzial [post]
func (h *EventHandler) RespondToEvent(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input rsvpRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	status, err := input.status()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.eventService.Respond(r.Context(), principal, id, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"message": "Zapisano udział",
		"status":  participant.Status,
	})
}

func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.eventService.Participants(r.Context(), principal, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	respond(w, r, http.StatusOK, participants)
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	v := queryString(r, key)
	if v == nil {
		return nil, nil
	}
	t, err := services.ParseFlexibleTime(*v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parametr %s: nieprawidłowa data", key)
	}
	return &t, nil
}
