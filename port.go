package serbridge

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Port represents a duplex serial connection. The read and write sides are
// separate descriptors so they can be watched independently for readiness.
type Port interface {
	Close() error
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Configure(opts ...Option) error
	Path() string
	ReadFd() int
	WriteFd() int
	Drain() error
}

// port is the concrete implementation of the Port interface
type port struct {
	mu     sync.RWMutex
	path   string
	rfd    int
	wfd    int
	config Config
	closed bool
}

// Ensure port implements Port interface at compile time
var _ Port = (*port)(nil)

var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	if b, ok := baudRates[rate]; ok {
		return b, nil
	}
	return 0, ErrInvalidBaudRate
}

// OpenRaw opens the device without touching its line discipline. The write
// side is always opened; the read side unless WithSkipRead is given.
func OpenRaw(device string, opts ...Option) (Port, error) {
	config, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	wflags := unix.O_WRONLY | unix.O_NOCTTY
	if config.WriteMode == WriteModeSynced {
		wflags |= unix.O_SYNC
	}

	wfd, err := unix.Open(device, wflags, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	rfd := -1
	if !config.SkipRead {
		rfd, err = unix.Open(device, unix.O_RDONLY|unix.O_NOCTTY, 0)
		if err != nil {
			unix.Close(wfd)
			return nil, openError(device, err)
		}
	}

	return &port{
		path:   device,
		rfd:    rfd,
		wfd:    wfd,
		config: config,
	}, nil
}

// Open opens a serial port and applies raw-mode line settings to it
func Open(device string, opts ...Option) (Port, error) {
	p, err := OpenRaw(device, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Configure(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func openError(device string, err error) error {
	if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENXIO) {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	}
	return fmt.Errorf("failed to open %s: %w", device, err)
}

// Configure applies opts on top of the options given at open time and
// programs both descriptors.
func (p *port) Configure(opts ...Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	config := p.config
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return err
		}
	}

	for _, fd := range []int{p.wfd, p.rfd} {
		if fd < 0 {
			continue
		}
		if err := configurePort(fd, config); err != nil {
			return err
		}
	}

	p.config = config
	return nil
}

// configurePort sets raw 8N1, ignored parity errors, no output or line
// processing and blocking single-byte reads with no inter-byte timeout.
func configurePort(fd int, config Config) error {
	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}

	if _, err := unix.IoctlGetTermios(fd, unix.TCGETS); err != nil {
		return fmt.Errorf("%w: get termios: %v", ErrDeviceConfig, err)
	}

	termios := &unix.Termios{}
	termios.Cflag = baudRate | unix.CS8 | unix.CLOCAL | unix.CREAD
	termios.Iflag = unix.IGNPAR
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH); err != nil {
		return fmt.Errorf("%w: flush input: %v", ErrDeviceConfig, err)
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("%w: set termios: %v", ErrDeviceConfig, err)
	}

	return nil
}

func (p *port) Path() string {
	return p.path
}

// ReadFd returns the read descriptor, or -1 when the read side was skipped
func (p *port) ReadFd() int {
	return p.rfd
}

func (p *port) WriteFd() int {
	return p.wfd
}

// Close closes both descriptors
func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true

	err := unix.Close(p.wfd)
	if p.rfd >= 0 {
		if rerr := unix.Close(p.rfd); err == nil {
			err = rerr
		}
	}
	return err
}

// Read reads at most len(buf) bytes. Zero bytes with a nil error means the
// device closed its side of the stream.
func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if p.rfd < 0 {
		return 0, ErrReadSkipped
	}

	n, err := unix.Read(p.rfd, buf)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Write performs a single write call; callers wanting the whole buffer
// flushed use WriteFull.
func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	n, err := unix.Write(p.wfd, data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Drain waits until all output written to the port has been transmitted
func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.wfd, unix.TCSBRK, 1)
}
