package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
)

const (
	minMailSubjectLen = 5
	minMailBodyLen    = 10
)

type MailService interface {
	Send(ctx context.Context, principal models.Principal, input SendMailInput) (*SendMailResult, error)
	SendToCategory(ctx context.Context, principal models.Principal, input CategoryMailInput) (*CategoryMailResult, error)
}

type SendMailInput struct {
	To      []int  `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type CategoryMailInput struct {
	Category models.Category `json:"category"`
	Subject  string          `json:"subject"`
	HTML     string          `json:"html"`
}

type MailRecipient struct {
	ID        int    `json:"_id"`
	Email     string `json:"email"`
	FirstName string `json:"imie"`
	LastName  string `json:"nazwisko"`
}

type SendMailResult struct {
	Message    string          `json:"message"`
	SentTo     int             `json:"sentTo"`
	Recipients []MailRecipient `json:"recipients"`
}

type CategoryMailResult struct {
	Message  string          `json:"message"`
	SentTo   int             `json:"sentTo"`
	Category models.Category `json:"category"`
}

type mailService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
}

func NewMailService(userRepo repositories.UserRepository, mailer Mailer) MailService {
	return &mailService{
		userRepo: userRepo,
		mailer:   mailer,
	}
}

func validateMailContent(subject, html string) error {
	if utf8.RuneCountInString(strings.TrimSpace(subject)) < minMailSubjectLen {
		return validationError("temat musi mieć min %d znaków", minMailSubjectLen)
	}
	if utf8.RuneCountInString(strings.TrimSpace(html)) < minMailBodyLen {
		return validationError("treść musi mieć min %d znaków", minMailBodyLen)
	}
	return nil
}

// Send отправляет одно письмо выбранным пользователям. Отправитель из списка исключается,
// каждый получатель проверяется правилами переписки.
func (s *mailService) Send(ctx context.Context, principal models.Principal, input SendMailInput) (*SendMailResult, error) {
	if err := validateMailContent(input.Subject, input.HTML); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(input.To))
	for _, id := range uniqueInts(input.To) {
		if id != principal.ID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoRecipients
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipients: %w", err)
	}
	if len(users) != len(ids) {
		return nil, ErrUserNotFound
	}

	emails := make([]string, 0, len(users))
	recipients := make([]MailRecipient, 0, len(users))
	for i := range users {
		if !access.CanMessage(principal, &users[i]) {
			return nil, fmt.Errorf("%w: nie możesz wysłać wiadomości do %s", ErrForbiddenOperation, users[i].Email)
		}
		emails = append(emails, users[i].Email)
		recipients = append(recipients, MailRecipient{
			ID:        users[i].ID,
			Email:     users[i].Email,
			FirstName: users[i].FirstName,
			LastName:  users[i].LastName,
		})
	}

	if err := s.mailer.SendEmail(emails, strings.TrimSpace(input.Subject), input.HTML); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return &SendMailResult{
		Message:    "Mail wysłany pomyślnie",
		SentTo:     len(emails),
		Recipients: recipients,
	}, nil
}

func (s *mailService) SendToCategory(ctx context.Context, principal models.Principal, input CategoryMailInput) (*CategoryMailResult, error) {
	if !input.Category.Valid() {
		return nil, validationError("nieprawidłowa kategoria")
	}
	if err := validateMailContent(input.Subject, input.HTML); err != nil {
		return nil, err
	}
	if !access.CanMessageCategory(principal, input.Category) {
		return nil, ErrForbiddenOperation
	}

	category := input.Category
	users, _, err := s.userRepo.List(ctx, models.UserFilter{Category: &category})
	if err != nil {
		return nil, fmt.Errorf("failed to load category members: %w", err)
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != principal.ID && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	if len(emails) == 0 {
		return nil, ErrNoRecipients
	}

	if err := s.mailer.SendEmail(emails, strings.TrimSpace(input.Subject), input.HTML); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return &CategoryMailResult{
		Message:  "Mail wysłany do kategorii",
		SentTo:   len(emails),
		Category: input.Category,
	}, nil
}
