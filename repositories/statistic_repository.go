package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/club-system/models"
)

var (
	ErrStatisticNotFound = errors.New("statistic not found")
	ErrStatisticConflict = errors.New("statistic for this player and season already exists")
	ErrStatisticPlayer   = errors.New("statistic references a missing player")
)

type StatisticRepository interface {
	Upsert(ctx context.Context, playerID int, patch models.StatisticPatch) (*models.Statistic, error)
	GetByID(ctx context.Context, id int) (*models.Statistic, error)
	GetForPlayer(ctx context.Context, playerID int, season *string) (*models.Statistic, error)
	ListForPlayers(ctx context.Context, playerIDs []int, season *string) (map[int]*models.Statistic, error)
	List(ctx context.Context, filter models.StatisticFilter) ([]models.Statistic, int, error)
	Update(ctx context.Context, stat *models.Statistic) error
	Seasons(ctx context.Context) ([]string, error)
}

type postgresStatisticRepository struct {
	db *sql.DB
}

func NewPostgresStatisticRepository(db *sql.DB) StatisticRepository {
	return &postgresStatisticRepository{db: db}
}

const statisticColumns = `s.id, s.player_id, s.season, s.yellow_cards, s.red_cards, s.minutes_played,
	s.goals_scored, s.trainings_attended, s.clean_sheets, s.created_at, s.updated_at`

func scanStatisticRow(row rowScanner, s *models.Statistic) error {
	return row.Scan(
		&s.ID,
		&s.PlayerID,
		&s.Season,
		&s.YellowCards,
		&s.RedCards,
		&s.MinutesPlayed,
		&s.GoalsScored,
		&s.TrainingsAttended,
		&s.CleanSheets,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// upsertStatisticQuery: при вставке непереданные счетчики равны 0,
// при конфликте по (игрок, сезон) остаются прежними.
const upsertStatisticQuery = `
		INSERT INTO statistics AS s (player_id, season, yellow_cards, red_cards, minutes_played,
			goals_scored, trainings_attended, clean_sheets)
		VALUES ($1, $2, COALESCE($3, 0), COALESCE($4, 0), COALESCE($5, 0),
			COALESCE($6, 0), COALESCE($7, 0), COALESCE($8, 0))
		ON CONFLICT (player_id, (COALESCE(season, ''))) DO UPDATE SET
			yellow_cards = COALESCE($3, s.yellow_cards),
			red_cards = COALESCE($4, s.red_cards),
			minutes_played = COALESCE($5, s.minutes_played),
			goals_scored = COALESCE($6, s.goals_scored),
			trainings_attended = COALESCE($7, s.trainings_attended),
			clean_sheets = COALESCE($8, s.clean_sheets),
			updated_at = NOW()
		RETURNING ` + statisticColumns

// upsertStatisticArgs - параметры $1..$8 для upsertStatisticQuery.
func upsertStatisticArgs(playerID int, patch models.StatisticPatch) []interface{} {
	return []interface{}{
		playerID,
		models.NormalizedSeason(patch.Season),
		patch.YellowCards,
		patch.RedCards,
		patch.MinutesPlayed,
		patch.GoalsScored,
		patch.TrainingsAttended,
		patch.CleanSheets,
	}
}

// Upsert находит запись по ключу (игрок, сезон) и применяет к ней patch одним запросом.
func (r *postgresStatisticRepository) Upsert(ctx context.Context, playerID int, patch models.StatisticPatch) (*models.Statistic, error) {
	stat := &models.Statistic{}
	err := scanStatisticRow(r.db.QueryRowContext(ctx, upsertStatisticQuery, upsertStatisticArgs(playerID, patch)...), stat)
	if err != nil {
		if code, _, ok := pgErrorCode(err); ok && code == pgForeignKeyViolation {
			return nil, ErrStatisticPlayer
		}
		return nil, fmt.Errorf("failed to upsert statistic: %w", err)
	}
	return stat, nil
}

func (r *postgresStatisticRepository) GetByID(ctx context.Context, id int) (*models.Statistic, error) {
	query := `SELECT ` + statisticColumns + ` FROM statistics s WHERE s.id = $1`
	return r.scanOne(ctx, query, id)
}

// GetForPlayer возвращает запись за сезон. Без сезона предпочитается запись без сезона,
// иначе последняя обновленная.
func (r *postgresStatisticRepository) GetForPlayer(ctx context.Context, playerID int, season *string) (*models.Statistic, error) {
	if season = models.NormalizedSeason(season); season != nil {
		query := `SELECT ` + statisticColumns + ` FROM statistics s WHERE s.player_id = $1 AND s.season = $2`
		return r.scanOne(ctx, query, playerID, *season)
	}
	query := `SELECT ` + statisticColumns + ` FROM statistics s WHERE s.player_id = $1
		ORDER BY (s.season IS NULL) DESC, s.updated_at DESC LIMIT 1`
	return r.scanOne(ctx, query, playerID)
}

// ListForPlayers возвращает по одной записи на игрока (правила выбора как в GetForPlayer).
func (r *postgresStatisticRepository) ListForPlayers(ctx context.Context, playerIDs []int, season *string) (map[int]*models.Statistic, error) {
	out := make(map[int]*models.Statistic, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	var b whereBuilder
	b.add("s.player_id = ANY(" + b.arg(toInt64s(playerIDs)) + ")")
	if season = models.NormalizedSeason(season); season != nil {
		b.add("s.season = " + b.arg(*season))
	}
	query := `SELECT DISTINCT ON (s.player_id) ` + statisticColumns + ` FROM statistics s` + b.sql() +
		` ORDER BY s.player_id, (s.season IS NULL) DESC, s.updated_at DESC`

	stats, err := r.query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		out[stats[i].PlayerID] = &stats[i]
	}
	return out, nil
}

// List возвращает страницу статистики с краткими данными игрока.
func (r *postgresStatisticRepository) List(ctx context.Context, filter models.StatisticFilter) ([]models.Statistic, int, error) {
	var b whereBuilder
	b.add("u.role = " + b.arg(models.RolePlayer))
	if filter.Season != nil {
		b.add("s.season = " + b.arg(*filter.Season))
	}
	if filter.Category != nil {
		b.add("u.category = " + b.arg(*filter.Category))
	}
	if filter.Position != nil {
		b.add("u.position = " + b.arg(*filter.Position))
	}
	if filter.PlayerID != nil {
		b.add("s.player_id = " + b.arg(*filter.PlayerID))
	}

	from := ` FROM statistics s JOIN users u ON u.id = s.player_id` + b.sql()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count statistics: %w", err)
	}

	query := `SELECT ` + statisticColumns + `,
		u.id, u.first_name, u.last_name, u.email, u.role, u.category, u.position` + from +
		` ORDER BY s.created_at DESC, s.id DESC` + b.pagination(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	stats := make([]models.Statistic, 0)
	for rows.Next() {
		var s models.Statistic
		var u models.UserSummary
		if err := rows.Scan(
			&s.ID, &s.PlayerID, &s.Season, &s.YellowCards, &s.RedCards, &s.MinutesPlayed,
			&s.GoalsScored, &s.TrainingsAttended, &s.CleanSheets, &s.CreatedAt, &s.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.Category, &u.Position,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan statistic: %w", err)
		}
		s.Player = &u
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return stats, total, nil
}

func (r *postgresStatisticRepository) Update(ctx context.Context, stat *models.Statistic) error {
	query := `
		UPDATE statistics SET
			season = $1,
			yellow_cards = $2,
			red_cards = $3,
			minutes_played = $4,
			goals_scored = $5,
			trainings_attended = $6,
			clean_sheets = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		models.NormalizedSeason(stat.Season),
		stat.YellowCards,
		stat.RedCards,
		stat.MinutesPlayed,
		stat.GoalsScored,
		stat.TrainingsAttended,
		stat.CleanSheets,
		stat.ID,
	).Scan(&stat.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatisticNotFound
		}
		if code, _, ok := pgErrorCode(err); ok && code == pgUniqueViolation {
			return ErrStatisticConflict
		}
		return err
	}
	return nil
}

// Seasons - все известные сезоны, новые первыми.
func (r *postgresStatisticRepository) Seasons(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT season FROM statistics WHERE season IS NOT NULL AND season <> '' ORDER BY season DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	seasons := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

func (r *postgresStatisticRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.Statistic, error) {
	stat := &models.Statistic{}
	if err := scanStatisticRow(r.db.QueryRowContext(ctx, query, args...), stat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatisticNotFound
		}
		return nil, err
	}
	return stat, nil
}

func (r *postgresStatisticRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Statistic, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	stats := make([]models.Statistic, 0)
	for rows.Next() {
		var s models.Statistic
		if err := scanStatisticRow(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan statistic: %w", err)
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
