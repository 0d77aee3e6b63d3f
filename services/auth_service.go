package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"github.com/Dosada05/club-system/storage"
	"golang.org/x/crypto/bcrypt"
)

const passwordResetTTL = 15 * time.Minute

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	Me(ctx context.Context, principal models.Principal) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword string) error
	ChangePassword(ctx context.Context, principal models.Principal, oldPassword, newPassword string) error
}

// RegisterInput - самостоятельная регистрация. Роль и категория из тела игнорируются:
// новый аккаунт всегда ZAWODNIK без категории.
type RegisterInput struct {
	Email       string           `json:"email"`
	Password    string           `json:"haslo"`
	FirstName   string           `json:"imie"`
	LastName    string           `json:"nazwisko"`
	Phone       *string          `json:"telefon"`
	Nationality *string          `json:"narodowosc"`
	Position    *models.Position `json:"pozycja"`
	Role        string           `json:"rola,omitempty"`
	Category    string           `json:"kategoria,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"haslo"`
}

type authService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
	composer *MailComposer
	uploader storage.FileUploader
}

func NewAuthService(
	userRepo repositories.UserRepository,
	mailer Mailer,
	composer *MailComposer,
	uploader storage.FileUploader,
) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		composer: composer,
		uploader: uploader,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validationError("email jest wymagany")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationError("nieprawidłowy email")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Position != nil && !input.Position.Valid() {
		return nil, validationError("nieprawidłowa pozycja")
	}
	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RolePlayer,
		Category:     models.CategoryNone,
		Position:     input.Position,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        trimmedOrNil(input.Phone),
		Nationality:  trimmedOrNil(input.Nationality),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, validationError("email i hasło są wymagane")
	}
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *authService) Me(ctx context.Context, principal models.Principal) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	populateUserDetails(user, s.uploader)
	return user, nil
}

// ForgotPassword никогда не сообщает, существует ли email: ошибки поиска и отправки только логируются.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			slog.ErrorContext(ctx, "forgot password: user lookup failed", slog.Any("error", err))
		}
		return nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashToken(token), time.Now().Add(passwordResetTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	subject, body, err := s.composer.passwordReset(user.FirstName, token, passwordResetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail([]string{user.Email}, subject, body); err != nil {
		slog.ErrorContext(ctx, "forgot password: email not sent", slog.Int("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(strings.TrimSpace(token)) < 10 {
		return ErrInvalidResetToken
	}
	user, err := s.userRepo.GetByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(time.Now()) {
		return ErrInvalidResetToken
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", mapRepositoryError(err))
	}

	subject, body, err := s.composer.passwordChanged(user.FirstName)
	if err == nil {
		err = s.mailer.SendEmail([]string{user.Email}, subject, body)
	}
	if err != nil {
		slog.ErrorContext(ctx, "password changed notification failed", slog.Int("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, principal models.Principal, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return validationError("stare hasło jest wymagane")
	}
	user, err := s.userRepo.GetByID(ctx, principal.ID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("failed to compare password hash: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return mapRepositoryError(s.userRepo.UpdatePassword(ctx, user.ID, passwordHash))
}
