package handlers

import (
	"net/http"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
)

type SquadHandler struct {
	squadService services.SquadService
}

func NewSquadHandler(ss services.SquadService) *SquadHandler {
	return &SquadHandler{
		squadService: ss,
	}
}

// CreateSquad godoc
// @Summary Создать состав на матч: до 11 в основе и до 7 в запасе
// @Tags squads
// @Accept json
// @Produce json
// @Param input body services.CreateSquadInput true "Состав"
// @Success 201 {object} models.Squad
// @Failure 400,403 {object} map[string]string
// @Security BearerAuth
// @Router /squads [post]
func (h *SquadHandler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	var input services.CreateSquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.Create(r.Context(), principal, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, squad)
}

func (h *SquadHandler) ListSquads(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	squads, err := h.squadService.List(r.Context(), principal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if squads == nil {
		squads = []models.Squad{}
	}
	respond(w, r, http.StatusOK, squads)
}

func (h *SquadHandler) GetSquad(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.Get(r.Context(), principal, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, squad)
}

// UpdateSquad обслуживает и PATCH, и PUT: отсутствующие поля не меняются.
func (h *SquadHandler) UpdateSquad(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateSquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.squadService.Update(r.Context(), principal, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"message": "Kadra meczowa zaktualizowana",
		"squad":   squad,
	})
}

func (h *SquadHandler) DeleteSquad(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.squadService.Delete(r.Context(), principal, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Kadra meczowa usunięta"})
}
