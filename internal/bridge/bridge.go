// Package bridge wires a configured serial device to the console: it
// probes for the device, applies line settings, optionally uploads a
// program and then hands over to the multiplexing loop.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/config"
	"github.com/allbin/go-serbridge/internal/mux"
	"github.com/allbin/go-serbridge/internal/term"
	"github.com/allbin/go-serbridge/internal/upload"
	"github.com/rs/zerolog"
)

// OpenFunc opens a device without applying line settings
type OpenFunc func(path string, opts ...serbridge.Option) (serbridge.Port, error)

// PollerFunc builds the readiness source for an opened device. inputFd is
// -1 when input is not a descriptor.
type PollerFunc func(port serbridge.Port, inputFd int) mux.Poller

// Runner holds everything one bridge session needs. The zero value is not
// usable; build one with New and override fields in tests.
type Runner struct {
	Config config.Config
	Log    zerolog.Logger

	In      io.Reader
	InputFd int
	Out     io.Writer

	Open      OpenFunc
	NewPoller PollerFunc
	MakeRaw   func(fd int) (func() error, error)

	// Signals subscribes to termination signals; the returned func
	// unsubscribes. Exit ends the process after a signal.
	Signals func() (<-chan os.Signal, func())
	Exit    func(code int)
}

// New returns a Runner bound to the process stdin and stdout
func New(cfg config.Config, log zerolog.Logger) *Runner {
	return &Runner{
		Config:    cfg,
		Log:       log,
		In:        os.Stdin,
		InputFd:   int(os.Stdin.Fd()),
		Out:       os.Stdout,
		Open:      serbridge.OpenRaw,
		NewPoller: FdPoller,
		MakeRaw:   term.MakeRaw,
		Signals:   notifySignals,
		Exit:      os.Exit,
	}
}

func notifySignals() (<-chan os.Signal, func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan, func() { signal.Stop(sigChan) }
}

// FdPoller polls the device descriptors and inputFd with poll(2)
func FdPoller(port serbridge.Port, inputFd int) mux.Poller {
	return &mux.FdPoller{
		DeviceRead:  port.ReadFd(),
		DeviceWrite: port.WriteFd(),
		Input:       inputFd,
	}
}

// Run executes one session until both directions finish or a fatal error
// occurs. The device is closed and the input terminal restored on return.
// In raw mode Ctrl-D is plain input, so an interactive session normally
// ends with SIGINT or SIGTERM; the terminal is restored before Exit runs.
func (r *Runner) Run() (err error) {
	cfg := r.Config
	r.Log.Info().
		Int("baud", cfg.BaudRate).
		Str("io", cfg.IOName()).
		Bool("echo", cfg.Echo).
		Str("mode", cfg.Mode.String()).
		Msg("bridge settings")

	port, err := r.openDevice()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := port.Close(); cerr != nil && !errors.Is(cerr, serbridge.ErrPortClosed) {
			r.Log.Debug().Err(cerr).Msg("close device")
		}
	}()

	if cfg.Mode == config.Interactive && r.InputFd >= 0 {
		restore, err := r.MakeRaw(r.InputFd)
		if err != nil {
			return fmt.Errorf("prepare input terminal: %w", err)
		}
		var once sync.Once
		restoreOnce := func() {
			once.Do(func() {
				if rerr := restore(); rerr != nil {
					r.Log.Warn().Err(rerr).Msg("failed to restore terminal")
				}
			})
		}
		defer restoreOnce()

		stop := r.exitOnSignal(restoreOnce)
		defer stop()
	}

	if cfg.ProgramPath != "" {
		if err := r.uploadProgram(port); err != nil {
			return err
		}
	}

	loop := mux.New(cfg, port, r.In, r.Out, r.NewPoller(port, r.InputFd), r.Log)
	return loop.Run()
}

// exitOnSignal runs teardown and exits with status 1 when a termination
// signal arrives before the returned stop func is called.
func (r *Runner) exitOnSignal(teardown func()) func() {
	sigChan, unsubscribe := r.Signals()
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			r.Log.Info().Str("signal", sig.String()).Msg("interrupted, restoring terminal")
			teardown()
			r.Exit(1)
		case <-done:
		}
	}()

	return func() {
		unsubscribe()
		close(done)
	}
}

// openDevice probes the candidates and applies the configured baud rate
// to the first one that opens.
func (r *Runner) openDevice() (serbridge.Port, error) {
	cfg := r.Config
	opts := []serbridge.Option{serbridge.WithSkipRead(cfg.SkipRead)}
	if cfg.SyncWrite {
		opts = append(opts, serbridge.WithSyncWrite())
	}
	open := func(path string) (serbridge.Port, error) {
		r.Log.Info().Str("device", path).Msg("opening")
		return r.Open(path, opts...)
	}
	onFail := func(path string, err error) {
		r.Log.Warn().Err(err).Str("device", path).Msg("failed to open device")
	}

	port, path, err := serbridge.Probe(cfg.Candidates(), open, onFail)
	if err != nil {
		return nil, err
	}

	if err := port.Configure(serbridge.WithBaudRate(cfg.BaudRate)); err != nil {
		port.Close()
		if !errors.Is(err, serbridge.ErrDeviceConfig) {
			err = fmt.Errorf("%w: %v", serbridge.ErrDeviceConfig, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r.Log.Info().Str("device", path).Bool("read", !cfg.SkipRead).Msg("successfully opened")
	return port, nil
}

func (r *Runner) uploadProgram(port serbridge.Port) error {
	cfg := r.Config
	r.Log.Info().Str("program", cfg.ProgramPath).Str("format", cfg.ProgramFormat.String()).Msg("uploading program")

	res, err := upload.File(port, cfg.ProgramPath, cfg.ProgramFormat)
	if err != nil {
		return fmt.Errorf("upload %s: %w", cfg.ProgramPath, err)
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("drain after upload: %w", err)
	}

	r.Log.Info().Int("bytes", res.Bytes).Str("format", res.Format.String()).Msg("program uploaded")
	return nil
}
