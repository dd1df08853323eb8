package destination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

type stubConn struct {
	name     string
	inserted []seed.Record
	closed   int
	closeErr error
}

func (s *stubConn) HasColumn(_ context.Context, _, column string) (bool, error) {
	return column == s.name, nil
}

func (s *stubConn) Insert(_ context.Context, _ string, records []seed.Record) error {
	s.inserted = append(s.inserted, records...)
	return nil
}

func (s *stubConn) Close() error {
	s.closed++
	return s.closeErr
}

func TestRouter_Dispatch(t *testing.T) {
	def := &stubConn{name: "default"}
	other := &stubConn{name: "other"}
	r := NewRouter()
	r.Add("", def)
	r.Add("other", other)

	ok, err := r.HasColumn(context.Background(), "", "users", "default")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasColumn(context.Background(), "other", "users", "default")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Insert(context.Background(), "other", "users", []seed.Record{{"id": "1"}}))
	assert.Len(t, other.inserted, 1)
	assert.Empty(t, def.inserted)

	assert.Equal(t, []string{"", "other"}, r.Names())
}

func TestRouter_UnknownConnection(t *testing.T) {
	r := NewRouter()

	_, err := r.HasColumn(context.Background(), "", "users", "id")
	assert.ErrorIs(t, err, ErrUnknownConnection)
	assert.Contains(t, err.Error(), "no default connection")

	err = r.Insert(context.Background(), "missing", "users", []seed.Record{{"id": "1"}})
	assert.ErrorIs(t, err, ErrUnknownConnection)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestRouter_AddReplacesAndCloses(t *testing.T) {
	first := &stubConn{}
	second := &stubConn{}
	r := NewRouter()
	r.Add("db", first)
	r.Add("db", second)

	assert.Equal(t, 1, first.closed)
	assert.Zero(t, second.closed)
}

func TestRouter_Close(t *testing.T) {
	boom := errors.New("boom")
	a := &stubConn{}
	b := &stubConn{closeErr: boom}
	r := NewRouter()
	r.Add("a", a)
	r.Add("b", b)

	err := r.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.Empty(t, r.Names())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", Options{})
	assert.ErrorContains(t, err, "unsupported driver")
}
