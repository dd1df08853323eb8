package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
)

// Source is a lazy sequence of CSV rows read from a file.
type Source struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	counter *countingReader
	csv     *csv.Reader
	closed  bool
}

// SourceOptions controls how a Source parses its file.
type SourceOptions struct {
	Delimiter    rune // defaults to ','
	SanitizeUTF8 bool
}

// OpenSource opens path for reading. gzip files are recognised by content
// and decompressed transparently. Errors wrap ErrSourceUnavailable, and no
// file handle is left open on failure.
func OpenSource(path string, opts SourceOptions) (*Source, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: CSV %s does not exist or is not readable: %v", ErrSourceUnavailable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: CSV %s is a directory", ErrSourceUnavailable, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: CSV %s does not exist or is not readable: %v", ErrSourceUnavailable, path, err)
	}

	gzipped, err := isGzip(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: CSV %s: %v", ErrSourceUnavailable, path, err)
	}

	s := &Source{
		path:    path,
		file:    f,
		counter: &countingReader{r: f, total: info.Size()},
	}

	var r io.Reader = s.counter
	if gzipped {
		gz, err := gzip.NewReader(s.counter)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: CSV %s: open gzip: %v", ErrSourceUnavailable, path, err)
		}
		s.gz = gz
		r = gz
	}

	r = newBOMSkippingReader(r)
	if opts.SanitizeUTF8 {
		r = newUTF8Sanitizer(r)
	}

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	s.csv = cr

	return s, nil
}

// isGzip sniffs the start of f and rewinds it.
func isGzip(f *os.File) (bool, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return false, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewind: %w", err)
	}
	return mt.Is("application/gzip"), nil
}

// Next returns the next row. It returns io.EOF at the end of the file;
// any other error is a read failure.
func (s *Source) Next() ([]string, error) {
	if s.closed {
		return nil, io.EOF
	}
	row, err := s.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: CSV %s: %v", ErrSourceRead, s.path, err)
	}
	return row, nil
}

// Path returns the file path the source was opened with.
func (s *Source) Path() string { return s.path }

// Progress returns the percentage of the file consumed so far.
func (s *Source) Progress() int { return s.counter.percent() }

// Close releases the file. Calling it more than once is safe.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.gz != nil {
		err = s.gz.Close()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
