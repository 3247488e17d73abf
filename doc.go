// Package serbridge provides the serial transport used by the serbridge
// console: opening a Linux tty as separate read and write descriptors,
// programming raw 8N1 line settings, probing candidate device paths and
// retrying writes until the device has accepted every byte.
//
// # Basic Usage
//
// Open a device with the default configuration (460800 8N1, raw, blocking
// single-byte reads):
//
//	port, err := serbridge.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	err = serbridge.WriteFull(port, []byte{0xde, 0xad})
//	buffer := make([]byte, 16)
//	n, err := port.Read(buffer)
//
// # Probing
//
// Try /dev/ttyUSB0, /dev/ttyUSB1 and /dev/ttyUSB2 in order and configure
// the first one that opens:
//
//	paths := serbridge.Candidates(serbridge.DefaultDevicePrefix, serbridge.DefaultProbeCount)
//	port, path, err := serbridge.Probe(paths, func(p string) (serbridge.Port, error) {
//	    return serbridge.OpenRaw(p)
//	}, nil)
//	if err != nil {
//	    // errors.Is(err, serbridge.ErrDeviceUnavailable)
//	}
//	err = port.Configure(serbridge.WithBaudRate(921600))
//
// # Readiness
//
// ReadFd and WriteFd expose the descriptors so callers can wait on them
// with poll(2). With WithSkipRead the read side is never opened and ReadFd
// returns -1.
//
// # Port Discovery
//
//	ports, err := serbridge.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serbridge.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n", info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// # Error Handling
//
// Failures wrap the sentinel errors in errors.go; use errors.Is:
//
//	if errors.Is(err, serbridge.ErrDeviceConfig) {
//	    // the device opened but rejected the line settings
//	}
//
// EINTR and EAGAIN are reported by IsTransient and retried by WriteFull.
//
// # Platform Support
//
// Linux only. Termios access goes through golang.org/x/sys/unix and port
// metadata is read from sysfs.
package serbridge
