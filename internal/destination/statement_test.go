package destination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

func TestBuildInserts_Postgres(t *testing.T) {
	records := []seed.Record{
		{"id": "1", "first_name": "Abe"},
		{"id": "2", "email": nil},
	}

	stmts := buildInserts(pgDialect, "public.users", records)
	require.Len(t, stmts, 1)

	assert.Equal(t,
		`INSERT INTO "public"."users" ("email", "first_name", "id") VALUES ($1, $2, $3), ($4, $5, $6)`,
		stmts[0].sql)
	assert.Equal(t, []any{nil, "Abe", "1", nil, nil, "2"}, stmts[0].args)
}

func TestBuildInserts_SQLiteQuoting(t *testing.T) {
	stmts := buildInserts(sqliteDialect, `we"ird`, []seed.Record{{`co"l`: "v"}})
	require.Len(t, stmts, 1)
	assert.Equal(t, `INSERT INTO "we""ird" ("co""l") VALUES (?)`, stmts[0].sql)
}

func TestBuildInserts_SplitsAtParamLimit(t *testing.T) {
	d := sqliteDialect
	d.maxParams = 5 // two columns -> two rows per statement

	records := []seed.Record{
		{"a": "1", "b": "1"},
		{"a": "2", "b": "2"},
		{"a": "3", "b": "3"},
		{"a": "4", "b": "4"},
		{"a": "5", "b": "5"},
	}

	stmts := buildInserts(d, "t", records)
	require.Len(t, stmts, 3)
	assert.Len(t, stmts[0].args, 4)
	assert.Len(t, stmts[1].args, 4)
	assert.Equal(t, []any{"5", "5"}, stmts[2].args)
}

func TestBuildInserts_Empty(t *testing.T) {
	assert.Nil(t, buildInserts(pgDialect, "t", nil))
	assert.Nil(t, buildInserts(pgDialect, "t", []seed.Record{{}}))
}
