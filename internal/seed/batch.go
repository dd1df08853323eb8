package seed

import "context"

// FlushFunc writes one full batch. The accumulator hands over ownership of
// the slice and never touches it again.
type FlushFunc func(ctx context.Context, batch []Record) error

// Accumulator collects records and flushes them in fixed-size batches.
type Accumulator struct {
	size  int
	batch []Record
	flush FlushFunc

	flushes  int
	failures int
	flushed  int // records in successful flushes
	firstErr error
}

// NewAccumulator returns an Accumulator flushing every size records.
// A size below 1 is treated as 1.
func NewAccumulator(size int, flush FlushFunc) *Accumulator {
	if size < 1 {
		size = 1
	}
	return &Accumulator{
		size:  size,
		batch: make([]Record, 0, size),
		flush: flush,
	}
}

// Add appends rec to the current batch, flushing when it is full.
// Empty records are ignored and do not take a slot.
func (a *Accumulator) Add(ctx context.Context, rec Record) {
	if len(rec) == 0 {
		return
	}
	a.batch = append(a.batch, rec)
	if len(a.batch) == a.size {
		a.flushBatch(ctx)
	}
}

// Close flushes any buffered records. It never issues an empty flush.
func (a *Accumulator) Close(ctx context.Context) {
	if len(a.batch) > 0 {
		a.flushBatch(ctx)
	}
}

// Pending returns the number of buffered, unflushed records.
func (a *Accumulator) Pending() int {
	return len(a.batch)
}

// Flushes returns the number of flushes issued so far.
func (a *Accumulator) Flushes() int { return a.flushes }

// Failures returns the number of flushes that returned an error.
func (a *Accumulator) Failures() int { return a.failures }

// Flushed returns the number of records in successful flushes.
func (a *Accumulator) Flushed() int { return a.flushed }

// Err returns the first flush error, if any.
func (a *Accumulator) Err() error { return a.firstErr }

func (a *Accumulator) flushBatch(ctx context.Context) {
	full := a.batch
	a.batch = make([]Record, 0, a.size)

	a.flushes++
	if err := a.flush(ctx, full); err != nil {
		a.failures++
		if a.firstErr == nil {
			a.firstErr = err
		}
		return
	}
	a.flushed += len(full)
}
