package serbridge

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound    = errors.New("serial device not found")
	ErrDeviceUnavailable = errors.New("no candidate serial device could be opened")
	ErrDeviceConfig      = errors.New("failed to configure serial device")
	ErrInvalidBaudRate   = errors.New("invalid baud rate")
	ErrPortClosed        = errors.New("serial port is closed")
	ErrReadSkipped       = errors.New("read side of serial port was not opened")

	// Write errors
	ErrWrite      = errors.New("unrecoverable write error")
	ErrShortWrite = errors.New("device accepted zero bytes")
)
