package frame

import (
	"io"
	"os"
)

type timeout interface {
	Timeout() bool
}

// exhausted tells whether a read error only means the source has nothing
// more to give within its timeout.
func exhausted(err error) bool {
	if err == io.EOF || os.IsTimeout(err) {
		return true
	}
	if t, ok := err.(timeout); ok {
		return t.Timeout()
	}
	return false
}

// ReadExact reads up to n bytes from r, accumulating partial reads.
// It stops early when a read returns no data, io.EOF or a timeout, in which
// case the returned slice is shorter than n and err is nil. The caller must
// compare the length to detect truncation. Other read errors are returned
// along with the bytes received so far.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		cnt, err := r.Read(buf[got:])
		got += cnt
		if err != nil {
			if exhausted(err) {
				break
			}
			return buf[:got], err
		}
		if cnt == 0 {
			break
		}
	}
	return buf[:got], nil
}
