// Package codec translates between the textual form of a word typed on the
// console and its 1-4 byte big-endian wire form.
//
// Width 0 is the ASCII mode: a word is a single raw character. Widths 1-4
// are hexadecimal words of that many bytes, displayed as width*2 lowercase
// hex digits.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ASCII is the width selecting single-character words
const (
	ASCII    = 0
	MaxWidth = 4
)

var (
	ErrFormat       = errors.New("malformed word")
	ErrInvalidWidth = errors.New("word width must be between 0 and 4")
)

// FormatError reports text that does not parse at the given width
type FormatError struct {
	Text  string
	Width int
}

func (e *FormatError) Error() string {
	if e.Width == ASCII {
		return fmt.Sprintf("malformed word %q: expected a character", e.Text)
	}
	return fmt.Sprintf("malformed word %q: expected 1-%d hex digits", e.Text, e.Width*2)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// ValidWidth reports whether width is one of 0..4
func ValidWidth(width int) bool {
	return width >= ASCII && width <= MaxWidth
}

// Size is the number of bytes a word of the given width occupies on the wire
func Size(width int) int {
	if width == ASCII {
		return 1
	}
	return width
}

// Decode parses text as one word. In ASCII mode the first byte of text is
// the value, so a bare "\n" decodes to a newline. In hex mode surrounding
// whitespace is ignored and at most width*2 digits are accepted.
func Decode(text string, width int) (uint32, error) {
	if !ValidWidth(width) {
		return 0, ErrInvalidWidth
	}

	if width == ASCII {
		if text == "" {
			return 0, &FormatError{Text: text, Width: width}
		}
		return uint32(text[0]), nil
	}

	digits := strings.TrimSpace(text)
	if digits == "" || len(digits) > width*2 {
		return 0, &FormatError{Text: text, Width: width}
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, &FormatError{Text: text, Width: width}
	}
	return uint32(v), nil
}

// Encode returns exactly Size(width) bytes, most significant first. Bits
// above the width are dropped.
func Encode(value uint32, width int) []byte {
	return AppendEncode(make([]byte, 0, Size(width)), value, width)
}

// AppendEncode appends the wire form of value to dst
func AppendEncode(dst []byte, value uint32, width int) []byte {
	n := Size(width)
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(value>>(8*uint(i))))
	}
	return dst
}

// Format renders value for display: a literal character in ASCII mode,
// otherwise width*2 lowercase hex digits.
func Format(value uint32, width int) string {
	if width == ASCII {
		return string([]byte{byte(value)})
	}
	return fmt.Sprintf("%0*x", width*2, value&mask(width))
}

func mask(width int) uint32 {
	if width >= MaxWidth {
		return 0xFFFFFFFF
	}
	return 1<<(8*uint(width)) - 1
}
