package codec

import (
	"bufio"
	"io"
	"strings"
)

// Scanner reads words synchronously for the blocking input mode
type Scanner struct {
	r     *bufio.Reader
	width int
}

func NewScanner(r io.Reader, width int) *Scanner {
	return &Scanner{r: bufio.NewReader(r), width: width}
}

// Next blocks until one word is available. ASCII mode returns the next byte
// that is not a line terminator; hex mode decodes the next
// whitespace-delimited token. io.EOF is returned once input is exhausted.
func (s *Scanner) Next() (uint32, error) {
	if s.width == ASCII {
		for {
			b, err := s.r.ReadByte()
			if err != nil {
				return 0, err
			}
			if b != '\n' && b != '\r' {
				return uint32(b), nil
			}
		}
	}

	token, err := s.token()
	if err != nil {
		return 0, err
	}
	return Decode(token, s.width)
}

func (s *Scanner) token() (string, error) {
	var sb strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF && sb.Len() > 0 {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			continue
		}
		sb.WriteByte(b)
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
