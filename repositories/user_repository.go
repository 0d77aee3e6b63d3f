package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/club-system/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int) ([]models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error
	UpdateAvatarKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, email, password_hash, role, category, position, first_name, last_name,
	phone, nationality, contract_start, contract_end, avatar_key,
	reset_token_hash, reset_token_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Category,
		&user.Position,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Nationality,
		&user.ContractStart,
		&user.ContractEnd,
		&user.AvatarKey,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func mapUserWriteError(err error) error {
	if code, constraint, ok := pgErrorCode(err); ok && code == pgUniqueViolation && constraint == "users_email_key" {
		return ErrUserEmailConflict
	}
	return err
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, category, position, first_name, last_name,
			phone, nationality, contract_start, contract_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Category,
		user.Position,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Nationality,
		user.ContractStart,
		user.ContractEnd,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUserWriteError(err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token_hash = $1`
	return r.scanUser(ctx, query, tokenHash)
}

// GetByIDs возвращает найденных пользователей; отсутствующие id просто пропускаются.
func (r *postgresUserRepository) GetByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	return r.queryUsers(ctx, query, toInt64s(ids))
}

// List возвращает страницу пользователей и общее количество подходящих под фильтр.
func (r *postgresUserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var b whereBuilder

	if filter.Scope != nil {
		if len(filter.Scope) == 0 {
			return []models.User{}, 0, nil
		}
		parts := make([]string, 0, len(filter.Scope))
		for _, s := range filter.Scope {
			clause := "role = " + b.arg(s.Role)
			if s.Category != nil {
				clause += " AND category = " + b.arg(*s.Category)
			}
			parts = append(parts, "("+clause+")")
		}
		b.add("(" + strings.Join(parts, " OR ") + ")")
	}
	if filter.Role != nil {
		b.add("role = " + b.arg(*filter.Role))
	}
	if filter.Category != nil {
		b.add("category = " + b.arg(*filter.Category))
	}
	if filter.Position != nil {
		b.add("position = " + b.arg(*filter.Position))
	}

	where := b.sql()
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC, id DESC`
	query += b.pagination(filter.Limit, filter.Offset)

	users, err := r.queryUsers(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			email = $1,
			role = $2,
			category = $3,
			position = $4,
			first_name = $5,
			last_name = $6,
			phone = $7,
			nationality = $8,
			contract_start = $9,
			contract_end = $10,
			updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Role,
		user.Category,
		user.Position,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Nationality,
		user.ContractStart,
		user.ContractEnd,
		user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return mapUserWriteError(err)
	}
	return nil
}

// UpdatePassword меняет хеш пароля и сбрасывает токен восстановления.
func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	query := `
		UPDATE users SET
			password_hash = $1,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetResetToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $1, reset_token_expires_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE users SET avatar_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// Delete удаляет пользователя. Статистика и записи об участии удаляются каскадно,
// в событиях и составах автор обнуляется (ON DELETE SET NULL).
func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := scanUserRow(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := scanUserRow(r.db.QueryRowContext(ctx, query, args...), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
