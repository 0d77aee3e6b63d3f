package handlers

import (
	"net/http"

	"github.com/Dosada05/club-system/services"
)

type MailHandler struct {
	mailService services.MailService
}

func NewMailHandler(ms services.MailService) *MailHandler {
	return &MailHandler{
		mailService: ms,
	}
}

// SendMail godoc
// @Summary Письмо выбранным пользователям с учетом правил переписки
// @Tags mail
// @Accept json
// @Produce json
// @Param input body services.SendMailInput true "Получатели и текст"
// @Success 200 {object} services.SendMailResult
// @Failure 400,403,404 {object} map[string]string
// @Security BearerAuth
// @Router /mail/send [post]
func (h *MailHandler) SendMail(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	var input services.SendMailInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.mailService.Send(r.Context(), principal, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// SendCategoryMail godoc
// @Summary Рассылка по категории (PREZES - любая, TRENER - только своя)
// @Tags mail
// @Accept json
// @Produce json
// @Param input body services.CategoryMailInput true "Категория и текст"
// @Success 200 {object} services.CategoryMailResult
// @Failure 400,403 {object} map[string]string
// @Security BearerAuth
// @Router /mail/send-category [post]
func (h *MailHandler) SendCategoryMail(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	var input services.CategoryMailInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.mailService.SendToCategory(r.Context(), principal, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}
