package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/club-system/models"
	"github.com/lib/pq"
)

var ErrSquadNotFound = errors.New("squad not found")

type SquadRepository interface {
	Create(ctx context.Context, squad *models.Squad) error
	GetByID(ctx context.Context, id int) (*models.Squad, error)
	List(ctx context.Context, category *models.Category) ([]models.Squad, error)
	Update(ctx context.Context, squad *models.Squad) error
	Delete(ctx context.Context, id int) error
}

type postgresSquadRepository struct {
	db *sql.DB
}

func NewPostgresSquadRepository(db *sql.DB) SquadRepository {
	return &postgresSquadRepository{db: db}
}

const squadColumns = `id, title, starting_eleven, bench, category, created_by, created_at, updated_at`

func scanSquadRow(row rowScanner, s *models.Squad) error {
	var starting, bench pq.Int64Array
	err := row.Scan(
		&s.ID,
		&s.Title,
		&starting,
		&bench,
		&s.Category,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	s.StartingEleven = toInts(starting)
	s.Bench = toInts(bench)
	return nil
}

func (r *postgresSquadRepository) Create(ctx context.Context, squad *models.Squad) error {
	query := `
		INSERT INTO squads (title, starting_eleven, bench, category, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		squad.Title,
		toInt64s(squad.StartingEleven),
		toInt64s(squad.Bench),
		squad.Category,
		squad.CreatedBy,
	).Scan(&squad.ID, &squad.CreatedAt, &squad.UpdatedAt)
}

func (r *postgresSquadRepository) GetByID(ctx context.Context, id int) (*models.Squad, error) {
	var s models.Squad
	err := scanSquadRow(r.db.QueryRowContext(ctx, `SELECT `+squadColumns+` FROM squads WHERE id = $1`, id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to scan squad: %w", err)
	}
	return &s, nil
}

// List возвращает составы, новые первыми; category == nil - все категории.
func (r *postgresSquadRepository) List(ctx context.Context, category *models.Category) ([]models.Squad, error) {
	var b whereBuilder
	if category != nil {
		b.add("category = " + b.arg(*category))
	}
	query := `SELECT ` + squadColumns + ` FROM squads` + b.sql() + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query squads: %w", err)
	}
	defer rows.Close()

	squads := make([]models.Squad, 0)
	for rows.Next() {
		var s models.Squad
		if err := scanSquadRow(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan squad: %w", err)
		}
		squads = append(squads, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return squads, nil
}

func (r *postgresSquadRepository) Update(ctx context.Context, squad *models.Squad) error {
	query := `
		UPDATE squads SET
			title = $1,
			starting_eleven = $2,
			bench = $3,
			category = $4,
			updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		squad.Title,
		toInt64s(squad.StartingEleven),
		toInt64s(squad.Bench),
		squad.Category,
		squad.ID,
	).Scan(&squad.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSquadNotFound
	}
	return err
}

func (r *postgresSquadRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM squads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}
