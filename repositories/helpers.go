package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// pgErrorCode возвращает код ошибки Postgres и имя constraint, если err - *pq.Error.
func pgErrorCode(err error) (code string, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// whereBuilder собирает условие WHERE с позиционными параметрами $1..$n.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// arg регистрирует значение и возвращает его плейсхолдер.
func (b *whereBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	out := " WHERE " + b.clauses[0]
	for _, c := range b.clauses[1:] {
		out += " AND " + c
	}
	return out
}

// pagination добавляет LIMIT/OFFSET; limit <= 0 означает "без ограничения".
func (b *whereBuilder) pagination(limit, offset int) string {
	out := ""
	if limit > 0 {
		out += " LIMIT " + b.arg(limit)
	}
	if offset > 0 {
		out += " OFFSET " + b.arg(offset)
	}
	return out
}

func toInt64s(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func toInts(ids pq.Int64Array) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
