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

type SquadService interface {
	Create(ctx context.Context, principal models.Principal, input CreateSquadInput) (*models.Squad, error)
	List(ctx context.Context, principal models.Principal) ([]models.Squad, error)
	Get(ctx context.Context, principal models.Principal, id int) (*models.Squad, error)
	Update(ctx context.Context, principal models.Principal, id int, input UpdateSquadInput) (*models.Squad, error)
	Delete(ctx context.Context, principal models.Principal, id int) error
}

type CreateSquadInput struct {
	Title          string           `json:"title"`
	StartingEleven []int            `json:"startingEleven"`
	Bench          []int            `json:"bench"`
	Category       *models.Category `json:"kategoria"`
}

// UpdateSquadInput: nil-поля не меняются.
type UpdateSquadInput struct {
	Title          *string          `json:"title"`
	StartingEleven *[]int           `json:"startingEleven"`
	Bench          *[]int           `json:"bench"`
	Category       *models.Category `json:"kategoria"`
}

type squadService struct {
	squadRepo repositories.SquadRepository
	userRepo  repositories.UserRepository
}

func NewSquadService(squadRepo repositories.SquadRepository, userRepo repositories.UserRepository) SquadService {
	return &squadService{
		squadRepo: squadRepo,
		userRepo:  userRepo,
	}
}

func validateSquadTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	if n < models.SquadTitleMinLen {
		return "", validationError("tytuł musi mieć minimum %d znaki", models.SquadTitleMinLen)
	}
	if n > models.SquadTitleMaxLen {
		return "", validationError("tytuł nie może być dłuższy niż %d znaków", models.SquadTitleMaxLen)
	}
	return title, nil
}

// validateLineup проверяет лимиты и уникальность, затем что все id - игроки, доступные principal.
func (s *squadService) validateLineup(ctx context.Context, principal models.Principal, squad *models.Squad) error {
	if len(squad.StartingEleven) > models.SquadMaxStartingSize {
		return ErrSquadLineupTooLarge
	}
	if len(squad.Bench) > models.SquadMaxBenchSize {
		return ErrSquadBenchTooLarge
	}
	ids := squad.PlayerIDs()
	if len(uniqueInts(ids)) != len(ids) {
		return ErrSquadDuplicate
	}
	if len(ids) == 0 {
		return nil
	}

	players, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load squad players: %w", err)
	}
	if len(players) != len(ids) {
		return ErrSquadInvalidPlayer
	}
	for i := range players {
		if players[i].Role != models.RolePlayer {
			return ErrSquadInvalidPlayer
		}
		if !access.CanSelectPlayer(principal, &players[i]) {
			return fmt.Errorf("%w: zawodnik %d należy do innej kategorii", ErrForbiddenOperation, players[i].ID)
		}
	}
	return nil
}

func (s *squadService) Create(ctx context.Context, principal models.Principal, input CreateSquadInput) (*models.Squad, error) {
	if !access.CanCreateSquad(principal) {
		return nil, ErrForbiddenOperation
	}
	title, err := validateSquadTitle(input.Title)
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
	if principal.Role == models.RoleCoach {
		category = principal.Category
	}

	creator := principal.ID
	squad := &models.Squad{
		Title:          title,
		StartingEleven: nonNilInts(input.StartingEleven),
		Bench:          nonNilInts(input.Bench),
		Category:       category,
		CreatedBy:      &creator,
	}
	if err := s.validateLineup(ctx, principal, squad); err != nil {
		return nil, err
	}

	if err := s.squadRepo.Create(ctx, squad); err != nil {
		return nil, fmt.Errorf("failed to create squad: %w", err)
	}
	if err := s.populate(ctx, []*models.Squad{squad}); err != nil {
		return nil, err
	}
	return squad, nil
}

func (s *squadService) List(ctx context.Context, principal models.Principal) ([]models.Squad, error) {
	category, ok := access.SquadCategory(principal)
	if !ok {
		return nil, ErrForbiddenOperation
	}
	squads, err := s.squadRepo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	refs := make([]*models.Squad, len(squads))
	for i := range squads {
		refs[i] = &squads[i]
	}
	if err := s.populate(ctx, refs); err != nil {
		return nil, err
	}
	return squads, nil
}

func (s *squadService) Get(ctx context.Context, principal models.Principal, id int) (*models.Squad, error) {
	squad, err := s.squadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanViewSquad(principal, squad) {
		return nil, ErrForbiddenOperation
	}
	if err := s.populate(ctx, []*models.Squad{squad}); err != nil {
		return nil, err
	}
	return squad, nil
}

func (s *squadService) Update(ctx context.Context, principal models.Principal, id int, input UpdateSquadInput) (*models.Squad, error) {
	squad, err := s.squadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanModifySquad(principal, squad) {
		return nil, ErrForbiddenOperation
	}

	if input.Title != nil {
		if squad.Title, err = validateSquadTitle(*input.Title); err != nil {
			return nil, err
		}
	}
	if input.StartingEleven != nil {
		squad.StartingEleven = nonNilInts(*input.StartingEleven)
	}
	if input.Bench != nil {
		squad.Bench = nonNilInts(*input.Bench)
	}
	if input.Category != nil && principal.Role == models.RolePresident {
		if !input.Category.Valid() {
			return nil, validationError("nieprawidłowa kategoria")
		}
		squad.Category = *input.Category
	}
	if err := s.validateLineup(ctx, principal, squad); err != nil {
		return nil, err
	}

	if err := s.squadRepo.Update(ctx, squad); err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := s.populate(ctx, []*models.Squad{squad}); err != nil {
		return nil, err
	}
	return squad, nil
}

func (s *squadService) Delete(ctx context.Context, principal models.Principal, id int) error {
	squad, err := s.squadRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !access.CanModifySquad(principal, squad) {
		return ErrForbiddenOperation
	}
	return mapRepositoryError(s.squadRepo.Delete(ctx, id))
}

// populate подставляет краткие данные игроков и автора одним запросом на все составы.
// Удаленные игроки из ответа пропадают.
func (s *squadService) populate(ctx context.Context, squads []*models.Squad) error {
	ids := make([]int, 0)
	for _, sq := range squads {
		ids = append(ids, sq.PlayerIDs()...)
		if sq.CreatedBy != nil {
			ids = append(ids, *sq.CreatedBy)
		}
	}
	users, err := s.userRepo.GetByIDs(ctx, uniqueInts(ids))
	if err != nil {
		return fmt.Errorf("failed to load squad members: %w", err)
	}
	byID := make(map[int]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	summaries := func(ids []int) []*models.UserSummary {
		out := make([]*models.UserSummary, 0, len(ids))
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				out = append(out, u.Summary())
			}
		}
		return out
	}
	for _, sq := range squads {
		sq.StartingPlayers = summaries(sq.StartingEleven)
		sq.BenchPlayers = summaries(sq.Bench)
		sq.Creator = nil
		if sq.CreatedBy != nil {
			if u, ok := byID[*sq.CreatedBy]; ok {
				sq.Creator = u.Summary()
			}
		}
	}
	return nil
}

func nonNilInts(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
