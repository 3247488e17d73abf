package mux

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Readiness is a set of watched conditions
type Readiness uint8

const (
	DeviceReadable Readiness = 1 << iota
	DeviceWritable
	InputReadable
)

// Has reports whether all of f are in r
func (r Readiness) Has(f Readiness) bool {
	return r&f == f && f != 0
}

func (r Readiness) String() string {
	s := ""
	for _, c := range []struct {
		f    Readiness
		name string
	}{{DeviceReadable, "device-read"}, {DeviceWritable, "device-write"}, {InputReadable, "input-read"}} {
		if r.Has(c.f) {
			if s != "" {
				s += "|"
			}
			s += c.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Poller blocks until at least one watched condition is ready and returns
// the ready subset of watch. There is no timeout.
type Poller interface {
	Wait(watch Readiness) (Readiness, error)
}

var ErrNothingToWatch = errors.New("no descriptor to wait on")

// FdPoller waits on real descriptors with poll(2). A negative descriptor is
// never watched.
type FdPoller struct {
	DeviceRead  int
	DeviceWrite int
	Input       int

	fds   []unix.PollFd
	kinds []Readiness
}

func (p *FdPoller) Wait(watch Readiness) (Readiness, error) {
	p.fds = p.fds[:0]
	p.kinds = p.kinds[:0]
	p.add(watch, DeviceReadable, p.DeviceRead, unix.POLLIN)
	p.add(watch, DeviceWritable, p.DeviceWrite, unix.POLLOUT)
	p.add(watch, InputReadable, p.Input, unix.POLLIN)
	if len(p.fds) == 0 {
		return 0, ErrNothingToWatch
	}

	for {
		_, err := unix.Poll(p.fds, -1)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EINTR) {
			return 0, err
		}
	}

	var ready Readiness
	for i, fd := range p.fds {
		if fd.Revents&unix.POLLNVAL != 0 {
			return 0, unix.EBADF
		}
		// Hangups and errors count as ready so the following read or
		// write surfaces the condition.
		if fd.Revents&(fd.Events|unix.POLLHUP|unix.POLLERR) != 0 {
			ready |= p.kinds[i]
		}
	}
	return ready, nil
}

func (p *FdPoller) add(watch, kind Readiness, fd int, events int16) {
	if !watch.Has(kind) || fd < 0 {
		return
	}
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
	p.kinds = append(p.kinds, kind)
}
