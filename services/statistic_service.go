package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	defaultStatisticPageSize = 100
	maxStatisticPageSize     = 100
)

type StatisticService interface {
	Upsert(ctx context.Context, principal models.Principal, playerID int, patch models.StatisticPatch) (*models.Statistic, error)
	GetForPlayer(ctx context.Context, principal models.Principal, playerID int, season *string) (*models.Statistic, error)
	List(ctx context.Context, principal models.Principal, query StatisticListQuery) (*StatisticPage, error)
	Patch(ctx context.Context, principal models.Principal, id int, patch models.StatisticPatch) (*models.Statistic, error)
	FilterOptions(ctx context.Context, principal models.Principal) (*models.FilterOptions, error)
}

type StatisticListQuery struct {
	Season   *string
	Category *models.Category
	Position *models.Position
	PlayerID *int
	Page     int
	Limit    int
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type StatisticPage struct {
	Data       []models.Statistic `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

type statisticService struct {
	statRepo repositories.StatisticRepository
	userRepo repositories.UserRepository
}

func NewStatisticService(statRepo repositories.StatisticRepository, userRepo repositories.UserRepository) StatisticService {
	return &statisticService{
		statRepo: statRepo,
		userRepo: userRepo,
	}
}

func trimSeason(season *string) *string {
	if season == nil {
		return nil
	}
	v := strings.TrimSpace(*season)
	return models.NormalizedSeason(&v)
}

// Upsert: одна запись на (игрок, сезон). При создании непереданные счетчики равны 0,
// при обновлении меняются только переданные.
func (s *statisticService) Upsert(ctx context.Context, principal models.Principal, playerID int, patch models.StatisticPatch) (*models.Statistic, error) {
	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanWriteStatistics(principal, player) {
		return nil, ErrForbiddenOperation
	}
	if player.Role != models.RolePlayer {
		return nil, ErrTargetNotPlayer
	}
	if err := patch.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	patch.Season = trimSeason(patch.Season)

	stat, err := s.statRepo.Upsert(ctx, playerID, patch)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	stat.Player = player.Summary()
	return stat, nil
}

// GetForPlayer возвращает nil без ошибки, если статистики еще нет.
func (s *statisticService) GetForPlayer(ctx context.Context, principal models.Principal, playerID int, season *string) (*models.Statistic, error) {
	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanViewStatistics(principal, player) {
		return nil, ErrForbiddenOperation
	}

	stat, err := s.statRepo.GetForPlayer(ctx, playerID, trimSeason(season))
	if err != nil {
		if errors.Is(err, repositories.ErrStatisticNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load statistic: %w", err)
	}
	stat.Player = player.Summary()
	return stat, nil
}

func (s *statisticService) List(ctx context.Context, principal models.Principal, query StatisticListQuery) (*StatisticPage, error) {
	forced, ok := access.StatisticsCategory(principal)
	if !ok {
		return nil, ErrForbiddenOperation
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultStatisticPageSize
	}
	if limit > maxStatisticPageSize {
		limit = maxStatisticPageSize
	}

	filter := models.StatisticFilter{
		Season:   trimSeason(query.Season),
		Category: query.Category,
		Position: query.Position,
		PlayerID: query.PlayerID,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if forced != nil {
		filter.Category = forced
	}

	stats, total, err := s.statRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	return &StatisticPage{
		Data: stats,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// Patch меняет счетчики и, если передан, сезон. Занятый сезон дает конфликт.
func (s *statisticService) Patch(ctx context.Context, principal models.Principal, id int, patch models.StatisticPatch) (*models.Statistic, error) {
	stat, err := s.statRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	player, err := s.userRepo.GetByID(ctx, stat.PlayerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !access.CanWriteStatistics(principal, player) {
		return nil, ErrForbiddenOperation
	}
	if err := patch.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	patch.Apply(stat)
	if patch.Season != nil {
		stat.Season = trimSeason(patch.Season)
	}
	if err := s.statRepo.Update(ctx, stat); err != nil {
		return nil, mapRepositoryError(err)
	}
	stat.Player = player.Summary()
	return stat, nil
}

// FilterOptions: категории и позиции берутся из видимых игроков, сезоны - из всей статистики.
// Игрок получает только сезоны.
func (s *statisticService) FilterOptions(ctx context.Context, principal models.Principal) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{
		Categories: []models.Category{},
		Positions:  []models.Position{},
		Seasons:    []string{},
	}

	g, gctx := errgroup.WithContext(ctx)

	if category, ok := access.StatisticsCategory(principal); ok {
		g.Go(func() error {
			role := models.RolePlayer
			players, _, err := s.userRepo.List(gctx, models.UserFilter{Role: &role, Category: category})
			if err != nil {
				return fmt.Errorf("failed to list players: %w", err)
			}
			opts.Categories, opts.Positions = distinctCategoriesAndPositions(players)
			return nil
		})
	}

	g.Go(func() error {
		seasons, err := s.statRepo.Seasons(gctx)
		if err != nil {
			return err
		}
		opts.Seasons = seasons
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return opts, nil
}

func distinctCategoriesAndPositions(players []models.User) ([]models.Category, []models.Position) {
	cats := make(map[models.Category]struct{})
	positions := make(map[models.Position]struct{})
	for _, p := range players {
		if p.Category != "" {
			cats[p.Category] = struct{}{}
		}
		if p.Position != nil && *p.Position != "" {
			positions[*p.Position] = struct{}{}
		}
	}

	outCats := make([]models.Category, 0, len(cats))
	for c := range cats {
		outCats = append(outCats, c)
	}
	sort.Slice(outCats, func(i, j int) bool { return outCats[i] < outCats[j] })

	outPositions := make([]models.Position, 0, len(positions))
	for p := range positions {
		outPositions = append(outPositions, p)
	}
	sort.Slice(outPositions, func(i, j int) bool { return outPositions[i] < outPositions[j] })
	return outCats, outPositions
}
