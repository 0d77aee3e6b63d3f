package repositories

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	var b whereBuilder
	assert.Equal(t, "", b.sql())

	b.add("role = " + b.arg("TRENER"))
	b.add("category = " + b.arg("U15"))
	page := b.pagination(10, 20)

	assert.Equal(t, " WHERE role = $1 AND category = $2", b.sql())
	assert.Equal(t, " LIMIT $3 OFFSET $4", page)
	assert.Equal(t, []interface{}{"TRENER", "U15", 10, 20}, b.args)
}

func TestWhereBuilderPaginationOmitsZeroValues(t *testing.T) {
	var b whereBuilder
	assert.Equal(t, "", b.pagination(0, 0))
	assert.Empty(t, b.args)
}

func TestPgErrorCode(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: pgUniqueViolation, Constraint: "users_email_key"})
	code, constraint, ok := pgErrorCode(err)
	assert.True(t, ok)
	assert.Equal(t, pgUniqueViolation, code)
	assert.Equal(t, "users_email_key", constraint)

	_, _, ok = pgErrorCode(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIntArrayConversion(t *testing.T) {
	assert.Equal(t, pq.Int64Array{3, 1, 2}, toInt64s([]int{3, 1, 2}))
	assert.Equal(t, []int{3, 1, 2}, toInts(pq.Int64Array{3, 1, 2}))
	assert.Equal(t, []int{}, toInts(nil))
}
