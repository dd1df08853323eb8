package seed

// errors.go defines the failures a seed run can report.
//
// Insert failures are classified so that logs carry a short code support
// staff can search for:
//
//	DB001 - duplicate key            (SQLSTATE 23505, "unique constraint")
//	DB002 - other constraint         (SQLSTATE 23xxx, "constraint failed")
//	DB003 - unknown column           (SQLSTATE 42703, "has no column named")
//	DB004 - unknown table            (SQLSTATE 42P01, "no such table")
//	DB005 - connection failure       (SQLSTATE 08xxx, "connection refused")
//	DB006 - timeout                  (SQLSTATE 57014, context deadline)
//	DB000 - anything else
//
// Driver errors exposing SQLState() (pgconn.PgError does) are matched by
// code first. Everything else falls back to case-insensitive substring
// patterns; the first matching pattern wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable means the CSV file is missing or unreadable.
	// It is the only failure that aborts a run.
	ErrSourceUnavailable = errors.New("csv source unavailable")

	// ErrSourceRead means the file stopped parsing part way through.
	ErrSourceRead = errors.New("csv source read failed")

	// ErrDegenerateMapping means no CSV column maps to a destination column.
	ErrDegenerateMapping = errors.New("mapping has no usable columns")

	// ErrInsertFailed is matched by every *InsertError.
	ErrInsertFailed = errors.New("csv insert failed")
)

// InsertKind classifies a storage failure.
type InsertKind int

const (
	KindOther InsertKind = iota
	KindDuplicate
	KindConstraint
	KindUnknownColumn
	KindUnknownTable
	KindConnection
	KindTimeout
)

var kindCodes = map[InsertKind]string{
	KindOther:         "DB000",
	KindDuplicate:     "DB001",
	KindConstraint:    "DB002",
	KindUnknownColumn: "DB003",
	KindUnknownTable:  "DB004",
	KindConnection:    "DB005",
	KindTimeout:       "DB006",
}

var kindNames = map[InsertKind]string{
	KindOther:         "other",
	KindDuplicate:     "duplicate",
	KindConstraint:    "constraint",
	KindUnknownColumn: "unknown column",
	KindUnknownTable:  "unknown table",
	KindConnection:    "connection",
	KindTimeout:       "timeout",
}

// Code returns the support code for the kind.
func (k InsertKind) Code() string { return kindCodes[k] }

func (k InsertKind) String() string { return kindNames[k] }

// InsertError describes one failed batch.
type InsertError struct {
	Kind       InsertKind
	Table      string
	Connection string
	Filename   string
	Rows       int
	Err        error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("CSV insert failed [%s]: %v - CSV %s", e.Kind.Code(), e.Err, e.Filename)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInsertFailed) true for every InsertError.
func (e *InsertError) Is(target error) bool { return target == ErrInsertFailed }

// sqlStater is implemented by *pgconn.PgError.
type sqlStater interface {
	SQLState() string
}

type errorPattern struct {
	pattern string
	kind    InsertKind
}

// errorPatterns is checked in order; specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", KindDuplicate},
	{"unique constraint", KindDuplicate},
	{"violates unique", KindDuplicate},
	{"primary key must be unique", KindDuplicate},
	{"foreign key constraint", KindConstraint},
	{"not null constraint", KindConstraint},
	{"violates check constraint", KindConstraint},
	{"constraint failed", KindConstraint},
	{"has no column named", KindUnknownColumn},
	{"no such column", KindUnknownColumn},
	{"column does not exist", KindUnknownColumn},
	{"no such table", KindUnknownTable},
	{"relation does not exist", KindUnknownTable},
	{"connection refused", KindConnection},
	{"connection reset", KindConnection},
	{"broken pipe", KindConnection},
	{"database is closed", KindConnection},
	{"timeout", KindTimeout},
}

// ClassifyError maps a driver error to an InsertKind.
func ClassifyError(err error) InsertKind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var st sqlStater
	if errors.As(err, &st) {
		if k, ok := kindFromSQLState(st.SQLState()); ok {
			return k
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(msg, p.pattern) {
			return p.kind
		}
	}
	return KindOther
}

func kindFromSQLState(code string) (InsertKind, bool) {
	switch {
	case code == "23505":
		return KindDuplicate, true
	case strings.HasPrefix(code, "23"):
		return KindConstraint, true
	case code == "42703":
		return KindUnknownColumn, true
	case code == "42P01":
		return KindUnknownTable, true
	case strings.HasPrefix(code, "08"):
		return KindConnection, true
	case code == "57014":
		return KindTimeout, true
	}
	return KindOther, false
}
