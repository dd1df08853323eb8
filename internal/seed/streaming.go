package seed

// streaming.go holds the io.Reader wrappers a Source stacks under its CSV
// parser. None of them buffer more than a few bytes:
//
//   - countingReader: tracks compressed bytes read for progress notices
//   - bomSkippingReader: drops a UTF-8 BOM (0xEF 0xBB 0xBF) at offset 0
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'

import (
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader removes a BOM at the very start of the stream. BOM
// bytes anywhere else are passed through untouched.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	head    []byte // bytes read while checking that turned out not to be a BOM
	err     error  // error hit while checking, returned once head drains
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: r}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n == len(utf8BOM) && bytes.Equal(buf[:], utf8BOM) {
			n = 0
		}
		b.head = append([]byte(nil), buf[:n]...)
		b.err = err
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	if b.err != nil {
		return 0, b.err
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte
// sequence split across reads is held back until the next read completes it.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to emit.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// countingReader counts bytes passing through it.
type countingReader struct {
	r     io.Reader
	read  int64
	total int64 // 0 when unknown
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

// percent returns read progress 0-100, or 0 if the total is unknown.
func (c *countingReader) percent() int {
	if c.total <= 0 {
		return 0
	}
	pct := int(c.read * 100 / c.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
