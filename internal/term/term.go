// Package term switches the controlling terminal into character-at-a-time
// input for interactive sessions.
package term

import (
	"fmt"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// IsTerminal reports whether fd refers to a terminal
func IsTerminal(fd int) bool {
	return isatty.IsTerminal(uintptr(fd))
}

// MakeRaw disables canonical line editing and local echo on fd so every
// keystroke is delivered immediately. The returned function restores the
// previous settings. When fd is not a terminal nothing is changed and the
// restore function is a no-op.
func MakeRaw(fd int) (func() error, error) {
	if !IsTerminal(fd) {
		return func() error { return nil }, nil
	}

	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("get terminal attributes: %w", err)
	}

	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("set terminal attributes: %w", err)
	}

	return func() error {
		if err := unix.IoctlSetTermios(fd, unix.TCSETS, saved); err != nil {
			return fmt.Errorf("restore terminal attributes: %w", err)
		}
		return nil
	}, nil
}
