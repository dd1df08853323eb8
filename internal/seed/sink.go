package seed

import "context"

// Sink writes batches for one run. A storage failure is logged and returned
// as an *InsertError; it is never allowed to stop the run.
type Sink struct {
	Destination Destination
	Logger      Logger
	Table       string
	Connection  string
	Filename    string
}

// Insert writes records in a single bulk insert.
func (s *Sink) Insert(ctx context.Context, records []Record) error {
	err := s.Destination.Insert(ctx, s.Connection, s.Table, records)
	if err == nil {
		return nil
	}

	ierr := &InsertError{
		Kind:       ClassifyError(err),
		Table:      s.Table,
		Connection: s.Connection,
		Filename:   s.Filename,
		Rows:       len(records),
		Err:        err,
	}
	s.Logger.Error(ierr.Error(),
		"code", ierr.Kind.Code(),
		"kind", ierr.Kind.String(),
		"table", s.Table,
		"connection", s.Connection,
		"rows", len(records),
	)
	return ierr
}
