package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/live"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
)

// Broadcaster - получатель live-обновлений (live.Hub).
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type EventService interface {
	Create(ctx context.Context, principal models.Principal, input CreateEventInput) (*models.Event, error)
	List(ctx context.Context, principal models.Principal, query EventListQuery) ([]models.Event, error)
	Get(ctx context.Context, principal models.Principal, id int) (*models.Event, error)
	Update(ctx context.Context, principal models.Principal, id int, input UpdateEventInput) (*models.Event, error)
	Delete(ctx context.Context, principal models.Principal, id int) error
	Respond(ctx context.Context, principal models.Principal, id int, status models.AttendanceStatus) (*models.Participant, error)
	Participants(ctx context.Context, principal models.Principal, id int) ([]models.Participant, error)
}

type CreateEventInput struct {
	Title       string           `json:"tytul"`
	Description *string          `json:"opis"`
	Type        models.EventType `json:"typ"`
	Date        string           `json:"data"`
	EndDate     *string          `json:"dataKonca"`
	Location    *string          `json:"lokalizacja"`
	Category    *models.Category `json:"kategoria"`
}

type UpdateEventInput struct {
	Title       *string           `json:"tytul"`
	Description *string           `json:"opis"`
	Type        *models.EventType `json:"typ"`
	Date        *string           `json:"data"`
	EndDate     *string           `json:"dataKonca"`
	Location    *string           `json:"lokalizacja"`
	Category    *models.Category  `json:"kategoria"`
}

type EventListQuery struct {
	Type *models.EventType
	From *time.Time
	To   *time.Time
}

type eventService struct {
	eventRepo   repositories.EventRepository
	broadcaster Broadcaster
}

func NewEventService(eventRepo repositories.EventRepository, broadcaster Broadcaster) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		broadcaster: broadcaster,
	}
}

func validateEventTimes(e *models.Event) error {
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return ErrEventInvalidDates
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, principal models.Principal, input CreateEventInput) (*models.Event, error) {
	if !access.CanCreateEvent(principal) {
		return nil, ErrForbiddenOperation
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || input.Type == "" || strings.TrimSpace(input.Date) == "" {
		return nil, validationError("brak wymaganych pól")
	}
	if !input.Type.Valid() {
		return nil, validationError("nieprawidłowy typ wydarzenia")
	}
	startsAt, err := ParseFlexibleTime(input.Date, time.Local)
	if err != nil {
		return nil, validationError("data: %v", err)
	}
	endsAt, err := parseOptionalTime("dataKonca", input.EndDate)
	if err != nil {
		return nil, err
	}

	category := models.CategoryNone
	if input.Category != nil && *input.Category != "" {
		if !input.Category.Valid() {
			return nil, validationError("nieprawidłowa kategoria")
		}
		category = *input.Category
	}
	// Тренер создает события только для своей категории.
	if principal.Role == models.RoleCoach {
		category = principal.Category
	}

	creator := principal.ID
	event := &models.Event{
		Title:       title,
		Description: trimmedOrNil(input.Description),
		Type:        input.Type,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Location:    trimmedOrNil(input.Location),
		Category:    category,
		CreatedBy:   &creator,
	}
	if err := validateEventTimes(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", mapRepositoryError(err))
	}
	return event, nil
}

// List не содержит списков участников ни для одной роли.
func (s *eventService) List(ctx context.Context, principal models.Principal, query EventListQuery) ([]models.Event, error) {
	categories, ok := access.EventCategories(principal)
	if !ok {
		return nil, ErrForbiddenOperation
	}
	if query.Type != nil && !query.Type.Valid() {
		return nil, validationError("nieprawidłowy typ wydarzenia")
	}
	events, err := s.eventRepo.List(ctx, models.EventFilter{
		Categories: categories,
		Type:       query.Type,
		From:       query.From,
		To:         query.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Get: персонал видит всех участников, игрок - только свою запись.
func (s *eventService) Get(ctx context.Context, principal models.Principal, id int) (*models.Event, error) {
	event, err := s.getVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	// Состав есть только у тренировок.
	if event.Type != models.EventTraining {
		return event, nil
	}

	switch {
	case access.CanViewParticipants(principal, event):
		participants, err := s.eventRepo.ListParticipants(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load participants: %w", err)
		}
		event.Participants = participants
	case principal.Role == models.RolePlayer:
		own, err := s.eventRepo.GetParticipant(ctx, id, principal.ID)
		if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, fmt.Errorf("failed to load participant: %w", err)
		}
		if own != nil {
			event.Participants = []models.Participant{*own}
		}
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, principal models.Principal, id int, input UpdateEventInput) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanModifyEvent(principal, event) {
		return nil, ErrForbiddenOperation
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, validationError("tytuł nie może być pusty")
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = trimmedOrNil(input.Description)
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, validationError("nieprawidłowy typ wydarzenia")
		}
		event.Type = *input.Type
	}
	if input.Date != nil {
		startsAt, err := ParseFlexibleTime(*input.Date, time.Local)
		if err != nil {
			return nil, validationError("data: %v", err)
		}
		event.StartsAt = startsAt
	}
	if input.EndDate != nil {
		endsAt, err := parseOptionalTime("dataKonca", input.EndDate)
		if err != nil {
			return nil, err
		}
		event.EndsAt = endsAt
	}
	if input.Location != nil {
		event.Location = trimmedOrNil(input.Location)
	}
	if input.Category != nil && principal.Role == models.RolePresident {
		if !input.Category.Valid() {
			return nil, validationError("nieprawidłowa kategoria")
		}
		event.Category = *input.Category
	}
	if err := validateEventTimes(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, mapRepositoryError(err)
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, principal models.Principal, id int) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !access.CanModifyEvent(principal, event) {
		return ErrForbiddenOperation
	}
	return mapRepositoryError(s.eventRepo.Delete(ctx, id))
}

// Respond сохраняет ответ игрока. Повторный ответ перезаписывает статус той же записи.
func (s *eventService) Respond(ctx context.Context, principal models.Principal, id int, status models.AttendanceStatus) (*models.Participant, error) {
	if !status.Valid() {
		return nil, validationError("nieprawidłowy status udziału")
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanRespond(principal, event) {
		return nil, ErrForbiddenOperation
	}
	if event.Type != models.EventTraining {
		return nil, ErrEventNotTraining
	}

	participant, err := s.eventRepo.UpsertParticipant(ctx, id, principal.ID, status)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	if s.broadcaster != nil {
		if full, err := s.eventRepo.GetParticipant(ctx, id, principal.ID); err == nil {
			participant = full
		}
		s.broadcaster.BroadcastToRoom(live.EventRoom(id), live.Message{
			Type:    live.MessageAttendanceUpdated,
			Payload: participant,
			RoomID:  live.EventRoom(id),
		})
	}
	return participant, nil
}

func (s *eventService) Participants(ctx context.Context, principal models.Principal, id int) ([]models.Participant, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanViewParticipants(principal, event) {
		return nil, ErrForbiddenOperation
	}
	if event.Type != models.EventTraining {
		return []models.Participant{}, nil
	}
	participants, err := s.eventRepo.ListParticipants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return participants, nil
}

func (s *eventService) getVisible(ctx context.Context, principal models.Principal, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanViewEvent(principal, event) {
		return nil, ErrForbiddenOperation
	}
	return event, nil
}
