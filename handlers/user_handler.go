package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
)

const maxAvatarSize = 5 << 20

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{
		userService: us,
	}
}

// ListUsers godoc
// @Summary Список пользователей с учетом роли запрашивающего
// @Tags admin
// @Produce json
// @Param role query string false "Роль (только PREZES)"
// @Param category query string false "Категория (только PREZES)"
// @Param position query string false "Позиция (только PREZES)"
// @Param limit query int false "Размер страницы, максимум 100"
// @Param skip query int false "Смещение"
// @Success 200 {object} services.UserPage
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /admin/uzytkownicy [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	var query services.UserListQuery
	if v := queryString(r, "role"); v != nil {
		role := models.UserRole(*v)
		if !role.Valid() {
			badRequestResponse(w, r, fmt.Errorf("nieprawidłowa rola %q", *v))
			return
		}
		query.Role = &role
	}
	var err error
	if query.Category, err = queryCategory(r, "category"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.Position, err = queryPosition(r, "position"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.Skip, err = queryInt(r, "skip"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.userService.List(r.Context(), principal, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, page)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), principal, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

// CreateUser godoc
// @Summary Создать пользователя (PREZES). Без пароля генерируется временный и отправляется письмом
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.CreateUserInput true "Данные пользователя"
// @Success 201 {object} map[string]interface{}
// @Failure 400,403,409 {object} map[string]string
// @Security BearerAuth
// @Router /admin/uzytkownicy [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	var input services.CreateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Role == "" {
		badRequestResponse(w, r, errors.New("email i rola są wymagane"))
		return
	}

	result, err := h.userService.Create(r.Context(), principal, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	body := jsonResponse{
		"message": "Użytkownik utworzony",
		"id":      result.User.ID,
		"email":   result.User.Email,
		"rola":    result.User.Role,
	}
	if result.TemporaryPassword != "" {
		body["message"] = "Użytkownik utworzony. Tymczasowe hasło zostało wysłane na email"
		body["tymczasoweHaslo"] = result.TemporaryPassword
	}
	respond(w, r, http.StatusCreated, body)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), principal, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Role models.UserRole `json:"rola"`
	}
	h.patchUser(w, r, &input, "Rola zmieniona", func(p models.Principal, id int) (*models.User, error) {
		if !input.Role.Valid() {
			return nil, fmt.Errorf("%w: nieprawidłowa rola", services.ErrValidationFailed)
		}
		return h.userService.ChangeRole(r.Context(), p, id, input.Role)
	})
}

func (h *UserHandler) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Category models.Category `json:"kategoria"`
	}
	h.patchUser(w, r, &input, "Kategoria zmieniona", func(p models.Principal, id int) (*models.User, error) {
		return h.userService.ChangeCategory(r.Context(), p, id, input.Category)
	})
}

// ChangePosition: "pozycja": null снимает позицию.
func (h *UserHandler) ChangePosition(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Position *models.Position `json:"pozycja"`
	}
	h.patchUser(w, r, &input, "Pozycja zmieniona", func(p models.Principal, id int) (*models.User, error) {
		return h.userService.ChangePosition(r.Context(), p, id, input.Position)
	})
}

// patchUser - общий каркас PATCH-эндпоинтов: principal, id, тело, вызов, ответ {message, user}.
func (h *UserHandler) patchUser(w http.ResponseWriter, r *http.Request, input interface{}, message string,
	apply func(p models.Principal, id int) (*models.User, error)) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := readJSON(w, r, input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := apply(principal, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": message, "user": user})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), principal, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Użytkownik usunięty"})
}

// UploadAvatar godoc
// @Summary Загрузить аватар (владелец или PREZES)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "ID пользователя"
// @Param avatar formData file true "Изображение jpg/png/gif/webp, до 5 МБ"
// @Success 200 {object} models.User
// @Failure 400,403,404,503 {object} map[string]string
// @Security BearerAuth
// @Router /admin/uzytkownicy/{id}/avatar [put]
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+1024)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("plik jest za duży lub uszkodzony: %w", err))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("brak pliku w polu avatar"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("brak typu pliku"))
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), principal, id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}
