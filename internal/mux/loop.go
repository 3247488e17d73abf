// Package mux runs the bridge event loop: it waits on device-read,
// device-write and input readiness, renders received bytes to the
// transcript and feeds decoded input words to the device.
//
// The loop state is the pair of completion flags plus a single pending
// word slot. In interactive mode input is only consumed while the slot is
// empty, so at most one decoded word is ever waiting for the device.
package mux

import (
	"errors"
	"fmt"
	"io"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/codec"
	"github.com/allbin/go-serbridge/internal/config"
	"github.com/rs/zerolog"
)

const (
	// ReadSize is the most bytes taken from the device per readiness event
	ReadSize = 16
	// LineCapacity bounds an interactive input line, excluding the newline
	LineCapacity = 64
)

var ErrLineTooLong = fmt.Errorf("input line exceeds %d bytes", LineCapacity)

// State holds the two completion flags
type State struct {
	InputExhausted bool
	DeviceClosed   bool
}

// slot is the pending write: empty, or exactly one word
type slot struct {
	value uint32
	full  bool
}

// Loop is not safe for concurrent use; Step and Run must be called from a
// single goroutine.
type Loop struct {
	cfg     config.Config
	dev     io.ReadWriter
	in      io.Reader
	scanner *codec.Scanner
	poller  Poller
	printer *codec.Printer
	log     zerolog.Logger

	state    State
	pending  slot
	line     []byte
	overflow bool

	rbuf [ReadSize]byte
	ibuf [1]byte
	wire []byte
}

// New builds a loop over dev. In interactive mode in is read one byte at a
// time after the poller reports it readable, so it must not be buffered. In
// blocking mode in is wrapped in a codec.Scanner and never polled.
func New(cfg config.Config, dev io.ReadWriter, in io.Reader, out io.Writer, poller Poller, log zerolog.Logger) *Loop {
	l := &Loop{
		cfg:     cfg,
		dev:     dev,
		in:      in,
		poller:  poller,
		printer: codec.NewPrinter(out, cfg.Width),
		log:     log,
		line:    make([]byte, 0, LineCapacity),
		wire:    make([]byte, 0, codec.MaxWidth),
	}
	if cfg.Mode == config.Blocking {
		l.scanner = codec.NewScanner(in, cfg.Width)
	}
	// Without a read side there is no device stream to wait for
	l.state.DeviceClosed = cfg.SkipRead
	return l
}

// State returns the current completion flags
func (l *Loop) State() State {
	return l.state
}

// Pending returns the word waiting for the device, if any
func (l *Loop) Pending() (uint32, bool) {
	return l.pending.value, l.pending.full
}

// Done reports whether both directions have finished. A word still pending
// when the device closes after input ended is written before the loop stops.
func (l *Loop) Done() bool {
	return l.state.InputExhausted && l.state.DeviceClosed && !l.pending.full
}

// Interest is the readiness set the next Step will wait on
func (l *Loop) Interest() Readiness {
	var watch Readiness
	if !l.state.DeviceClosed {
		watch |= DeviceReadable
	}

	switch l.cfg.Mode {
	case config.Blocking:
		if !l.state.InputExhausted {
			watch |= DeviceWritable
		}
	default:
		if l.pending.full {
			watch |= DeviceWritable
		} else if !l.state.InputExhausted {
			watch |= InputReadable
		}
	}
	return watch
}

// Run steps until both directions finish or a fatal error occurs. A final
// newline is written to the transcript on every exit path.
func (l *Loop) Run() (err error) {
	defer func() {
		if ferr := l.printer.Finish(); err == nil && ferr != nil {
			err = fmt.Errorf("write transcript: %w", ferr)
		}
	}()

	for {
		done, err := l.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step performs one wait and services whatever became ready. It reports
// true once the loop has terminated.
func (l *Loop) Step() (bool, error) {
	if l.Done() {
		return true, nil
	}

	ready, err := l.poller.Wait(l.Interest())
	if err != nil {
		if serbridge.IsTransient(err) {
			return false, nil
		}
		return false, fmt.Errorf("wait for readiness: %w", err)
	}

	if ready.Has(DeviceReadable) {
		retry, err := l.readDevice()
		if err != nil {
			return false, err
		}
		if retry {
			return false, nil
		}
		if l.Done() {
			return true, nil
		}
	}

	if l.cfg.Mode == config.Blocking {
		err = l.serveBlocking(ready)
	} else {
		err = l.serveInteractive(ready)
	}
	if err != nil {
		return false, err
	}
	return l.Done(), nil
}

// readDevice reports retry when the read was interrupted
func (l *Loop) readDevice() (bool, error) {
	n, err := l.dev.Read(l.rbuf[:])
	if err != nil && !errors.Is(err, io.EOF) {
		if serbridge.IsTransient(err) {
			return true, nil
		}
		return false, fmt.Errorf("read device: %w", err)
	}

	if n == 0 {
		l.state.DeviceClosed = true
		l.log.Debug().Bool("input_exhausted", l.state.InputExhausted).Msg("device closed its stream")
		return false, nil
	}

	if err := l.printer.Received(l.rbuf[:n]); err != nil {
		return false, fmt.Errorf("write transcript: %w", err)
	}
	return false, nil
}

func (l *Loop) serveInteractive(ready Readiness) error {
	if l.pending.full {
		if !ready.Has(DeviceWritable) {
			return nil
		}
		if err := l.send(l.pending.value); err != nil {
			return err
		}
		l.pending = slot{}
		return nil
	}

	if l.state.InputExhausted || !ready.Has(InputReadable) {
		return nil
	}
	return l.readInput()
}

func (l *Loop) readInput() error {
	n, err := l.in.Read(l.ibuf[:])
	if n == 1 {
		l.acceptByte(l.ibuf[0])
		return nil
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		l.state.InputExhausted = true
		l.log.Debug().Bool("device_closed", l.state.DeviceClosed).Msg("input exhausted")
		if len(l.line) > 0 || l.overflow {
			l.completeLine()
		}
		return nil
	case serbridge.IsTransient(err):
		return nil
	default:
		return fmt.Errorf("read input: %w", err)
	}
}

func (l *Loop) acceptByte(b byte) {
	if b == '\n' {
		l.line = append(l.line, b)
		l.completeLine()
		return
	}
	if len(l.line) >= LineCapacity {
		l.overflow = true
		return
	}
	l.line = append(l.line, b)
}

// completeLine decodes the buffered line into the pending slot. Over-long
// and malformed lines are reported and dropped.
func (l *Loop) completeLine() {
	defer func() {
		l.line = l.line[:0]
		l.overflow = false
	}()

	if l.overflow {
		l.log.Warn().Err(ErrLineTooLong).Msg("discarding input line")
		return
	}

	v, err := codec.Decode(string(l.line), l.cfg.Width)
	if err != nil {
		l.log.Warn().Err(err).Msg("discarding input line")
		return
	}
	l.pending = slot{value: v, full: true}
}

func (l *Loop) serveBlocking(ready Readiness) error {
	if l.state.InputExhausted || !ready.Has(DeviceWritable) {
		return nil
	}

	v, err := l.scanner.Next()
	if errors.Is(err, io.EOF) {
		l.state.InputExhausted = true
		l.log.Debug().Bool("device_closed", l.state.DeviceClosed).Msg("input exhausted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return l.send(v)
}

// send echoes v if configured, then writes its wire form in full
func (l *Loop) send(v uint32) error {
	if l.cfg.Echo {
		if err := l.printer.Echo(v); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}

	l.wire = codec.AppendEncode(l.wire[:0], v, l.cfg.Width)
	if err := serbridge.WriteFull(l.dev, l.wire); err != nil {
		return fmt.Errorf("write device: %w", err)
	}
	return nil
}
