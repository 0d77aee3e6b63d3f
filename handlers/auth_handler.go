package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/club-system/middleware"
	"github.com/Dosada05/club-system/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	jwtTTL      time.Duration
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, jwtTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		jwtTTL:      jwtTTL,
	}
}

// Register godoc
// @Summary Самостоятельная регистрация (всегда ZAWODNIK, категория BRAK)
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.RegisterInput true "Данные регистрации"
// @Success 201 {object} map[string]interface{}
// @Failure 400,409 {object} map[string]string
// @Router /auth/rejestracja [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email i hasło są wymagane"))
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{
		"id":    user.ID,
		"email": user.Email,
		"rola":  user.Role,
	})
}

// Login godoc
// @Summary Вход, возвращает JWT и профиль
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.LoginInput true "Email и пароль"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /auth/logowanie [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email i hasło są wymagane"))
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{
		"token":      token,
		"uzytkownik": user,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Me(r.Context(), principal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

// ForgotPassword всегда отвечает 200, чтобы не раскрывать, какие адреса зарегистрированы.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Email) == "" {
		badRequestResponse(w, r, errors.New("email jest wymagany"))
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"message": "Jeśli email istnieje, wyślemy link do resetu hasła",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"noweHaslo"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Token == "" || input.NewPassword == "" {
		badRequestResponse(w, r, errors.New("token i nowe hasło są wymagane"))
		return
	}

	if err := h.authService.ResetPassword(r.Context(), input.Token, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Hasło zostało zmienione pomyślnie"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	// Фронтенд шлет "staroHaslo", "stareHaslo" принимается как исправленное написание.
	var input struct {
		OldPassword      string `json:"staroHaslo"`
		OldPasswordAlias string `json:"stareHaslo"`
		NewPassword      string `json:"noweHaslo"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.OldPassword == "" {
		input.OldPassword = input.OldPasswordAlias
	}
	if input.OldPassword == "" || input.NewPassword == "" {
		badRequestResponse(w, r, errors.New("stare i nowe hasło są wymagane"))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), principal, input.OldPassword, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Hasło zmienione pomyślnie"})
}
