package frame

import "io"

// Preamble marks the start of a frame.
var Preamble = [2]byte{0xAA, 0x55}

// Scanner matches the preamble over a 2-byte trailing window.
// The zero value is ready to use.
type Scanner struct {
	win     [2]byte
	pos     int
	filled  int
	skipped int
}

// Feed pushes one byte into the window and reports whether the last two
// bytes fed equal the preamble.
func (s *Scanner) Feed(b byte) bool {
	s.win[s.pos] = b
	s.pos = (s.pos + 1) & 1
	if s.filled < 2 {
		s.filled++
	}
	// s.pos now points at the oldest byte.
	if s.filled == 2 && s.win[s.pos] == Preamble[0] && s.win[(s.pos+1)&1] == Preamble[1] {
		s.filled = 0
		s.skipped--
		return true
	}
	s.skipped++
	return false
}

// Skipped returns the number of bytes fed before the last preamble seen,
// excluding the preamble itself.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Reset clears the window.
func (s *Scanner) Reset() {
	*s = Scanner{}
}

// FindSync consumes bytes from r one at a time until the preamble is seen.
// It returns false with a nil error when the source is exhausted first.
// Consumed bytes are never pushed back.
func FindSync(r io.Reader) (bool, error) {
	var s Scanner
	return s.Scan(r)
}

// Scan is FindSync continuing from the current window state.
func (s *Scanner) Scan(r io.Reader) (bool, error) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 && s.Feed(buf[0]) {
			return true, nil
		}
		if err != nil {
			if exhausted(err) {
				return false, nil
			}
			return false, err
		}
		if n == 0 {
			return false, nil
		}
	}
}
