package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"github.com/Dosada05/club-system/storage"
	"github.com/google/uuid"
)

const (
	defaultUserPageSize   = 100
	maxUserPageSize       = 100
	temporaryPasswordSize = 12
)

type UserService interface {
	List(ctx context.Context, principal models.Principal, query UserListQuery) (*UserPage, error)
	Get(ctx context.Context, principal models.Principal, id int) (*models.User, error)
	Create(ctx context.Context, principal models.Principal, input CreateUserInput) (*CreateUserResult, error)
	Update(ctx context.Context, principal models.Principal, id int, input UpdateUserInput) (*models.User, error)
	ChangeRole(ctx context.Context, principal models.Principal, id int, role models.UserRole) (*models.User, error)
	ChangeCategory(ctx context.Context, principal models.Principal, id int, category models.Category) (*models.User, error)
	ChangePosition(ctx context.Context, principal models.Principal, id int, position *models.Position) (*models.User, error)
	Delete(ctx context.Context, principal models.Principal, id int) error
	UploadAvatar(ctx context.Context, principal models.Principal, id int, contentType string, file io.Reader) (*models.User, error)
}

type UserListQuery struct {
	Role     *models.UserRole
	Category *models.Category
	Position *models.Position
	Limit    int
	Skip     int
}

type UserPage struct {
	Total int           `json:"total"`
	Limit int           `json:"limit"`
	Skip  int           `json:"skip"`
	Data  []models.User `json:"data"`
}

type CreateUserInput struct {
	Email         string           `json:"email"`
	Password      *string          `json:"haslo"`
	Role          models.UserRole  `json:"rola"`
	Category      *models.Category `json:"kategoria"`
	Position      *models.Position `json:"pozycja"`
	FirstName     string           `json:"imie"`
	LastName      string           `json:"nazwisko"`
	Phone         *string          `json:"telefon"`
	Nationality   *string          `json:"narodowosc"`
	ContractStart *string          `json:"contractStart"`
	ContractEnd   *string          `json:"contractEnd"`
}

type CreateUserResult struct {
	User *models.User
	// TemporaryPassword заполнен, только если пароль был сгенерирован сервером.
	TemporaryPassword string
}

// UpdateUserInput - PUT профиля: nil означает "оставить как есть".
// Пустая строка в датах контракта очищает их.
type UpdateUserInput struct {
	Email         *string          `json:"email"`
	Role          *models.UserRole `json:"rola"`
	Category      *models.Category `json:"kategoria"`
	Position      *models.Position `json:"pozycja"`
	FirstName     *string          `json:"imie"`
	LastName      *string          `json:"nazwisko"`
	Phone         *string          `json:"telefon"`
	Nationality   *string          `json:"narodowosc"`
	ContractStart *string          `json:"contractStart"`
	ContractEnd   *string          `json:"contractEnd"`
}

type userService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
	composer *MailComposer
	uploader storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	mailer Mailer,
	composer *MailComposer,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo: userRepo,
		mailer:   mailer,
		composer: composer,
		uploader: uploader,
	}
}

func (s *userService) List(ctx context.Context, principal models.Principal, query UserListQuery) (*UserPage, error) {
	scope, ok := access.UserListScope(principal)
	if !ok {
		return nil, ErrForbiddenOperation
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}
	skip := query.Skip
	if skip < 0 {
		skip = 0
	}

	filter := models.UserFilter{Scope: scope, Limit: limit, Offset: skip}
	// Фильтры из запроса доступны только президенту, остальные получают свою область видимости целиком.
	if principal.Role == models.RolePresident {
		filter.Role = query.Role
		filter.Category = query.Category
		filter.Position = query.Position
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		populateUserDetails(&users[i], s.uploader)
		access.Redact(principal, &users[i])
	}
	return &UserPage{Total: total, Limit: limit, Skip: skip, Data: users}, nil
}

func (s *userService) Get(ctx context.Context, principal models.Principal, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanViewUser(principal, user) {
		return nil, ErrForbiddenOperation
	}
	populateUserDetails(user, s.uploader)
	access.Redact(principal, user)
	return user, nil
}

func (s *userService) Create(ctx context.Context, principal models.Principal, input CreateUserInput) (*CreateUserResult, error) {
	if !access.CanManageUsers(principal) {
		return nil, ErrForbiddenOperation
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, validationError("nieprawidłowa rola")
	}
	category := models.CategoryNone
	if input.Category != nil && *input.Category != "" {
		if !input.Category.Valid() {
			return nil, validationError("nieprawidłowa kategoria")
		}
		category = *input.Category
	}
	if input.Position != nil && !input.Position.Valid() {
		return nil, validationError("nieprawidłowa pozycja")
	}
	contractStart, err := parseOptionalTime("contractStart", input.ContractStart)
	if err != nil {
		return nil, err
	}
	contractEnd, err := parseOptionalTime("contractEnd", input.ContractEnd)
	if err != nil {
		return nil, err
	}

	password := derefString(input.Password)
	var temporary string
	if password == "" {
		temporary, err = generateTemporaryPassword(temporaryPasswordSize)
		if err != nil {
			return nil, err
		}
		password = temporary
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          input.Role,
		Category:      category,
		Position:      input.Position,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Phone:         trimmedOrNil(input.Phone),
		Nationality:   trimmedOrNil(input.Nationality),
		ContractStart: contractStart,
		ContractEnd:   contractEnd,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	if temporary != "" {
		s.sendAccountCreated(ctx, user, temporary)
	}

	populateUserDetails(user, s.uploader)
	return &CreateUserResult{User: user, TemporaryPassword: temporary}, nil
}

func (s *userService) sendAccountCreated(ctx context.Context, user *models.User, temporary string) {
	subject, body, err := s.composer.accountCreated(user.FullName(), user.Email, string(user.Role), temporary)
	if err == nil {
		err = s.mailer.SendEmail([]string{user.Email}, subject, body)
	}
	if err != nil {
		slog.ErrorContext(ctx, "account created email not sent", slog.Int("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *userService) Update(ctx context.Context, principal models.Principal, id int, input UpdateUserInput) (*models.User, error) {
	return s.mutate(ctx, principal, id, func(user *models.User) error {
		if input.Email != nil {
			email, err := normalizeEmail(*input.Email)
			if err != nil {
				return err
			}
			user.Email = email
		}
		if input.Role != nil {
			if !input.Role.Valid() {
				return validationError("nieprawidłowa rola")
			}
			user.Role = *input.Role
		}
		if input.Category != nil {
			if !input.Category.Valid() {
				return validationError("nieprawidłowa kategoria")
			}
			user.Category = *input.Category
		}
		if input.Position != nil {
			if !input.Position.Valid() {
				return validationError("nieprawidłowa pozycja")
			}
			user.Position = input.Position
		}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.Phone != nil {
			user.Phone = trimmedOrNil(input.Phone)
		}
		if input.Nationality != nil {
			user.Nationality = trimmedOrNil(input.Nationality)
		}
		if input.ContractStart != nil {
			t, err := parseOptionalTime("contractStart", input.ContractStart)
			if err != nil {
				return err
			}
			user.ContractStart = t
		}
		if input.ContractEnd != nil {
			t, err := parseOptionalTime("contractEnd", input.ContractEnd)
			if err != nil {
				return err
			}
			user.ContractEnd = t
		}
		return nil
	})
}

func (s *userService) ChangeRole(ctx context.Context, principal models.Principal, id int, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, validationError("nieprawidłowa rola")
	}
	return s.mutate(ctx, principal, id, func(user *models.User) error {
		user.Role = role
		return nil
	})
}

func (s *userService) ChangeCategory(ctx context.Context, principal models.Principal, id int, category models.Category) (*models.User, error) {
	if !category.Valid() {
		return nil, validationError("nieprawidłowa kategoria")
	}
	return s.mutate(ctx, principal, id, func(user *models.User) error {
		user.Category = category
		return nil
	})
}

// ChangePosition: position == nil снимает позицию.
func (s *userService) ChangePosition(ctx context.Context, principal models.Principal, id int, position *models.Position) (*models.User, error) {
	if position != nil && !position.Valid() {
		return nil, validationError("nieprawidłowa pozycja")
	}
	return s.mutate(ctx, principal, id, func(user *models.User) error {
		user.Position = position
		return nil
	})
}

// mutate загружает пользователя, применяет изменения и сохраняет. Только для президента.
func (s *userService) mutate(ctx context.Context, principal models.Principal, id int, apply func(*models.User) error) (*models.User, error) {
	if !access.CanManageUsers(principal) {
		return nil, ErrForbiddenOperation
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err)
	}
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, principal models.Principal, id int) error {
	if !access.CanManageUsers(principal) {
		return ErrForbiddenOperation
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err)
	}
	if user.AvatarKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *user.AvatarKey); err != nil {
			slog.WarnContext(ctx, "failed to delete avatar of removed user", slog.Int("user_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *userService) UploadAvatar(ctx context.Context, principal models.Principal, id int, contentType string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	if !access.CanChangeAvatar(principal, id) {
		return nil, ErrForbiddenOperation
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	key := fmt.Sprintf("avatars/%d/%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatarKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to clean up uploaded avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, mapRepositoryError(err)
	}

	if user.AvatarKey != nil && *user.AvatarKey != key {
		if err := s.uploader.Delete(ctx, *user.AvatarKey); err != nil {
			slog.WarnContext(ctx, "failed to delete previous avatar", slog.String("key", *user.AvatarKey), slog.Any("error", err))
		}
	}
	user.AvatarKey = &key
	populateUserDetails(user, s.uploader)
	access.Redact(principal, user)
	return user, nil
}
