package seed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_Mappings(t *testing.T) {
	row := []string{"1", "ignored", "first", "last"}

	tests := []struct {
		name    string
		mapping map[int]string
		want    Record
	}{
		{
			name:    "no skipped columns",
			mapping: map[int]string{0: "id", 1: "ignored", 2: "first_name", 3: "last_name"},
			want:    Record{"id": "1", "ignored": "ignored", "first_name": "first", "last_name": "last"},
		},
		{
			name:    "skipped column",
			mapping: map[int]string{0: "id", 2: "first_name", 3: "last_name"},
			want:    Record{"id": "1", "first_name": "first", "last_name": "last"},
		},
		{
			name:    "position past end of row is null",
			mapping: map[int]string{0: "id", 2: "first_name", 99: "last_name"},
			want:    Record{"id": "1", "first_name": "first", "last_name": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transformer{Mapping: NewMapping(tt.mapping)}
			got, err := tr.Transform(row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransform_EmptyStringIsNull(t *testing.T) {
	tr := &Transformer{Mapping: NewMapping(map[int]string{0: "id", 1: "email"})}
	got, err := tr.Transform([]string{"5", ""})
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "5", "email": nil}, got)
}

func TestTransform_Trim(t *testing.T) {
	row := []string{"  1 ", "\tAbe\n", "   "}
	mapping := NewMapping(map[int]string{0: "id", 1: "first_name", 2: "last_name"})

	trimmed, err := (&Transformer{Mapping: mapping, Trim: true}).Transform(row)
	require.NoError(t, err)
	// Whitespace-only values trim to "" but are not empty in the raw row,
	// so they stay as empty strings rather than NULL.
	assert.Equal(t, Record{"id": "1", "first_name": "Abe", "last_name": ""}, trimmed)

	verbatim, err := (&Transformer{Mapping: mapping}).Transform(row)
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "  1 ", "first_name": "\tAbe\n", "last_name": "   "}, verbatim)
}

func TestTransform_HashAfterTrim(t *testing.T) {
	tr := &Transformer{
		Mapping:  NewMapping(map[int]string{0: "id", 1: "password", 2: "token"}),
		Hashable: []string{"password", "token"},
		Hasher:   prefixHasher,
		Trim:     true,
	}

	got, err := tr.Transform([]string{"1", " pw1 ", ""})
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "1", "password": "hashed:pw1", "token": nil}, got)
}

func TestTransform_HashError(t *testing.T) {
	boom := errors.New("password too long")
	tr := &Transformer{
		Mapping:  NewMapping(map[int]string{0: "password"}),
		Hashable: []string{"password"},
		Hasher:   HasherFunc(func(string) (string, error) { return "", boom }),
	}

	got, err := tr.Transform([]string{"secret"})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestTransform_TimestampsComputedOnce(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return time.Date(2026, 10, 14, 9, 30, calls, 0, time.UTC)
	}
	tr := &Transformer{
		Mapping:    NewMapping(map[int]string{0: "id"}),
		Timestamps: true,
		Now:        clock,
	}

	first, err := tr.Transform([]string{"1"})
	require.NoError(t, err)
	second, err := tr.Transform([]string{"2"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "2026-10-14 09:30:01", first[CreatedAtColumn])
	assert.Equal(t, first[CreatedAtColumn], second[CreatedAtColumn])
	assert.Equal(t, first[UpdatedAtColumn], second[UpdatedAtColumn])
}

func TestTransform_PresetTimestamps(t *testing.T) {
	tr := &Transformer{
		Mapping:    NewMapping(map[int]string{0: "id"}),
		Timestamps: true,
		CreatedAt:  "2020-01-01 00:00:00",
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}

	got, err := tr.Transform([]string{"1"})
	require.NoError(t, err)
	assert.Equal(t, Record{
		"id":            "1",
		CreatedAtColumn: "2020-01-01 00:00:00",
		UpdatedAtColumn: "2026-01-02 03:04:05",
	}, got)
}

func TestTransform_EmptyMapping(t *testing.T) {
	got, err := (&Transformer{}).Transform([]string{"1", "2"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
