package codec

import (
	"fmt"
	"io"
)

// WordsPerLine is how many received hex words share one transcript line
const WordsPerLine = 4

// Printer writes the console transcript. Received bytes are rendered per
// the display rule; in hex mode a newline follows every WordsPerLine words.
type Printer struct {
	w       io.Writer
	width   int
	scratch []byte
	bytes   int // received bytes since the last line break
}

func NewPrinter(w io.Writer, width int) *Printer {
	return &Printer{w: w, width: width}
}

// Received displays data and writes it out in one call
func (p *Printer) Received(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if p.width == ASCII {
		_, err := p.w.Write(data)
		return err
	}

	const hexDigits = "0123456789abcdef"
	lineBytes := WordsPerLine * p.width
	buf := p.scratch[:0]
	for _, b := range data {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0f])
		p.bytes++
		if p.bytes == lineBytes {
			buf = append(buf, '\n')
			p.bytes = 0
		}
	}
	p.scratch = buf
	_, err := p.w.Write(buf)
	return err
}

// Echo writes the outbound echo line: "> " value "(" size ")"
func (p *Printer) Echo(value uint32) error {
	_, err := fmt.Fprintf(p.w, "> %s(%d)\n", Format(value, p.width), Size(p.width))
	return err
}

// Finish writes the closing newline
func (p *Printer) Finish() error {
	_, err := io.WriteString(p.w, "\n")
	return err
}
