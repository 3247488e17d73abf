// Package upload streams a program image to the device ahead of the
// interactive session. Images are either raw bytes or whitespace separated
// 32-bit hex words; both are terminated on the wire by EndMarker.
package upload

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	serbridge "github.com/allbin/go-serbridge"
)

// MaxProgramSize is the capacity of the device program memory in bytes
const MaxProgramSize = 64 * 1024

// EndMarker is written after every image
var EndMarker = []byte{0xff, 0xff, 0xff, 0xff}

var (
	ErrFile            = errors.New("program file error")
	ErrProgramTooLarge = fmt.Errorf("%w: program exceeds %d bytes", ErrFile, MaxProgramSize)
)

// Format selects how the program file is interpreted
type Format int

const (
	FormatAuto Format = iota
	FormatBinary
	FormatHexWords
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "bin"
	case FormatHexWords:
		return "hex"
	default:
		return "auto"
	}
}

// ParseFormat accepts "auto", "bin" and "hex"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "bin", "binary", "raw":
		return FormatBinary, nil
	case "hex", "words":
		return FormatHexWords, nil
	default:
		return FormatAuto, fmt.Errorf("unknown program format %q (valid: auto, bin, hex)", s)
	}
}

// DetectFormat picks hex words for text extensions and raw bytes otherwise
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt", ".mem":
		return FormatHexWords
	default:
		return FormatBinary
	}
}

// Result summarizes a finished upload
type Result struct {
	Format Format
	Bytes  int // payload bytes, excluding the end marker
}

// File uploads the program at path to w
func File(w io.Writer, path string, format Format) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFile, err)
	}
	defer f.Close()

	if format == FormatAuto {
		format = DetectFormat(path)
	}
	return Upload(w, f, format)
}

// Upload sends the image read from r and then EndMarker. Writes are
// retried until fully flushed; the image is validated completely before
// the first byte goes out.
func Upload(w io.Writer, r io.Reader, format Format) (Result, error) {
	var payload []byte
	var err error

	switch format {
	case FormatHexWords:
		payload, err = readHexWords(r)
	case FormatBinary:
		payload, err = readBinary(r)
	default:
		return Result{}, fmt.Errorf("%w: format must be resolved before upload", ErrFile)
	}
	if err != nil {
		return Result{}, err
	}

	if err := serbridge.WriteFull(w, payload); err != nil {
		return Result{}, err
	}
	if err := serbridge.WriteFull(w, EndMarker); err != nil {
		return Result{}, err
	}
	return Result{Format: format, Bytes: len(payload)}, nil
}

func readBinary(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxProgramSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	if len(data) > MaxProgramSize {
		return nil, ErrProgramTooLarge
	}
	return data, nil
}

// readHexWords converts each text word to little-endian wire order, which
// reverses the bytes of the word as written.
func readHexWords(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var payload []byte
	for scanner.Scan() {
		word := scanner.Text()
		v, err := strconv.ParseUint(word, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex word %q", ErrFile, word)
		}
		if len(payload)+4 > MaxProgramSize {
			return nil, ErrProgramTooLarge
		}
		payload = binary.LittleEndian.AppendUint32(payload, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}
	return payload, nil
}
