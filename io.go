package serbridge

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// maxZeroWrites bounds how many consecutive zero-byte writes are tolerated
// before the device is considered stuck.
const maxZeroWrites = 16

// IsTransient reports whether err is an interrupted or would-block condition
// that the caller should simply retry.
func IsTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

// WriteFull writes all of data to w, retrying partial writes and transient
// errors. Any other error is wrapped in ErrWrite.
func WriteFull(w io.Writer, data []byte) error {
	zero := 0
	for len(data) > 0 {
		n, err := w.Write(data)
		if n > 0 {
			data = data[n:]
			zero = 0
		}
		if err != nil {
			if IsTransient(err) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		if n == 0 {
			zero++
			if zero >= maxZeroWrites {
				return fmt.Errorf("%w: %v", ErrWrite, ErrShortWrite)
			}
		}
	}
	return nil
}
