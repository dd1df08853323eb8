package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMapping_OrdersByPosition(t *testing.T) {
	m := NewMapping(map[int]string{99: "last_name", 0: "id", 2: "first_name"})
	assert.Equal(t, Mapping{
		{Position: 0, Field: "id"},
		{Position: 2, Field: "first_name"},
		{Position: 99, Field: "last_name"},
	}, m)
	assert.Equal(t, []string{"id", "first_name", "last_name"}, m.Fields())
}

func TestMappingFromHeader(t *testing.T) {
	dest := newMemDestination("users", "id", "first_name", "last_name", "email", "age")
	log := &memLogger{}

	tests := []struct {
		name   string
		header []string
		want   Mapping
	}{
		{
			name:   "all columns known",
			header: []string{"id", "first_name", "last_name"},
			want:   Mapping{{0, "id"}, {1, "first_name"}, {2, "last_name"}},
		},
		{
			name:   "unknown column keeps later positions",
			header: []string{"id", "ignored", "first_name", "last_name"},
			want:   Mapping{{0, "id"}, {2, "first_name"}, {3, "last_name"}},
		},
		{
			name:   "trailing extra columns dropped",
			header: []string{"id", "email", "shoe_size", "hat"},
			want:   Mapping{{0, "id"}, {1, "email"}},
		},
		{
			name:   "no overlap",
			header: []string{"foo", "bar"},
			want:   Mapping{},
		},
		{
			name:   "empty header",
			header: nil,
			want:   Mapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MappingFromHeader(context.Background(), tt.header, "users", boundColumns{dest, ""}, log)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Empty(t, log.errors)
}

func TestMappingFromHeader_LookupErrorDropsColumn(t *testing.T) {
	log := &memLogger{}
	dest := &errDestination{}

	got := MappingFromHeader(context.Background(), []string{"id"}, "users", boundColumns{dest, ""}, log)

	assert.Empty(t, got)
	assert.Len(t, log.errors, 1)
}

func TestRemoveUnusedHashColumns(t *testing.T) {
	mapping := NewMapping(map[int]string{0: "id", 1: "password", 2: "token"})

	tests := []struct {
		name     string
		hashable []string
		want     []string
	}{
		{"intersection", []string{"password", "secret", "token"}, []string{"password", "token"}},
		{"nothing used", []string{"secret"}, []string{}},
		{"empty", []string{}, []string{}},
		{"nil", nil, []string{}},
		{"duplicates collapse", []string{"password", "password"}, []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveUnusedHashColumns(tt.hashable, mapping)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RemoveUnusedHashColumns(got, mapping), "must be idempotent")
		})
	}
}
