package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEventInvalidRef     = errors.New("event references a missing user")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int) error

	UpsertParticipant(ctx context.Context, eventID, playerID int, status models.AttendanceStatus) (*models.Participant, error)
	GetParticipant(ctx context.Context, eventID, playerID int) (*models.Participant, error)
	ListParticipants(ctx context.Context, eventID int) ([]models.Participant, error)

	ListDueForReminder(ctx context.Context, from, to time.Time) ([]models.Event, error)
	MarkReminderSent(ctx context.Context, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, title, description, type, starts_at, ends_at, location, category,
	created_by, reminder_sent, created_at, updated_at`

func scanEventRow(row rowScanner, e *models.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Type,
		&e.StartsAt,
		&e.EndsAt,
		&e.Location,
		&e.Category,
		&e.CreatedBy,
		&e.ReminderSent,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func mapEventWriteError(err error) error {
	if code, _, ok := pgErrorCode(err); ok && code == pgForeignKeyViolation {
		return ErrEventInvalidRef
	}
	return err
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, type, starts_at, ends_at, location, category, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, reminder_sent, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Type,
		event.StartsAt,
		event.EndsAt,
		event.Location,
		event.Category,
		event.CreatedBy,
	).Scan(&event.ID, &event.ReminderSent, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return mapEventWriteError(err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	var e models.Event
	err := scanEventRow(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var b whereBuilder
	if filter.Categories != nil {
		cats := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = string(c)
		}
		b.add("category = ANY(" + b.arg(pq.StringArray(cats)) + ")")
	}
	if filter.Type != nil {
		b.add("type = " + b.arg(*filter.Type))
	}
	if filter.From != nil {
		b.add("starts_at >= " + b.arg(*filter.From))
	}
	if filter.To != nil {
		b.add("starts_at <= " + b.arg(*filter.To))
	}

	query := `SELECT ` + eventColumns + ` FROM events` + b.sql() + ` ORDER BY starts_at ASC, id ASC`
	return r.queryEvents(ctx, query, b.args...)
}

const (
	updateEventQuery = `
		UPDATE events SET
			title = $1,
			description = $2,
			type = $3,
			starts_at = $4,
			ends_at = $5,
			location = $6,
			category = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	// Записи об участии существуют только у тренировок.
	clearParticipantsQuery = `DELETE FROM event_participants WHERE event_id = $1`
)

// Update сохраняет событие. Если тип больше не TRENING, записи об участии удаляются
// в той же транзакции.
func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, updateEventQuery,
		event.Title,
		event.Description,
		event.Type,
		event.StartsAt,
		event.EndsAt,
		event.Location,
		event.Category,
		event.ID,
	).Scan(&event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return mapEventWriteError(err)
	}

	if event.Type != models.EventTraining {
		if _, err := tx.ExecContext(ctx, clearParticipantsQuery, event.ID); err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		event.Participants = nil
	}
	return tx.Commit()
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

// UpsertParticipant создает запись об участии или обновляет статус существующей.
// Первичный ключ (event_id, player_id) гарантирует одну запись на игрока.
func (r *postgresEventRepository) UpsertParticipant(ctx context.Context, eventID, playerID int, status models.AttendanceStatus) (*models.Participant, error) {
	query := `
		INSERT INTO event_participants (event_id, player_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, player_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING event_id, player_id, status, updated_at`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, eventID, playerID, status).
		Scan(&p.EventID, &p.PlayerID, &p.Status, &p.UpdatedAt)
	if err != nil {
		if code, _, ok := pgErrorCode(err); ok && code == pgForeignKeyViolation {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to upsert participant: %w", err)
	}
	return p, nil
}

func (r *postgresEventRepository) GetParticipant(ctx context.Context, eventID, playerID int) (*models.Participant, error) {
	query := participantSelect + ` WHERE ep.event_id = $1 AND ep.player_id = $2`
	rows, err := r.queryParticipants(ctx, query, eventID, playerID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrParticipantNotFound
	}
	return &rows[0], nil
}

func (r *postgresEventRepository) ListParticipants(ctx context.Context, eventID int) ([]models.Participant, error) {
	query := participantSelect + ` WHERE ep.event_id = $1 ORDER BY u.last_name, u.first_name, u.id`
	return r.queryParticipants(ctx, query, eventID)
}

// ListDueForReminder - события, начинающиеся в [from, to], по которым напоминание еще не отправлено.
func (r *postgresEventRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE reminder_sent = FALSE AND starts_at >= $1 AND starts_at <= $2
		ORDER BY starts_at ASC`
	return r.queryEvents(ctx, query, from, to)
}

func (r *postgresEventRepository) MarkReminderSent(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET reminder_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

const participantSelect = `
	SELECT ep.event_id, ep.player_id, ep.status, ep.updated_at,
		u.id, u.first_name, u.last_name, u.email, u.role, u.category, u.position
	FROM event_participants ep
	JOIN users u ON u.id = ep.player_id`

func (r *postgresEventRepository) queryParticipants(ctx context.Context, query string, args ...interface{}) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.UserSummary
		if err := rows.Scan(
			&p.EventID, &p.PlayerID, &p.Status, &p.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.Category, &u.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Player = &u
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *postgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := scanEventRow(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
