package serbridge

// WriteMode represents the write synchronization mode
type WriteMode int

const (
	WriteModeBuffered WriteMode = iota // Default: kernel buffers writes
	WriteModeSynced                    // O_SYNC: writes block until hardware transmission
)

// DefaultBaudRate is used when no baud rate option is given.
const DefaultBaudRate = 460800

// Config holds the configuration for a serial port
type Config struct {
	BaudRate  int
	SkipRead  bool // open the device for writing only
	WriteMode WriteMode
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns raw 8N1 at 460800 with buffered writes
func DefaultConfig() Config {
	return Config{
		BaudRate:  DefaultBaudRate,
		WriteMode: WriteModeBuffered,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithSkipRead opens only the write side of the device
func WithSkipRead(skip bool) Option {
	return func(c *Config) error {
		c.SkipRead = skip
		return nil
	}
}

// WithSyncWrite enables synchronous writes (O_SYNC) for guaranteed transmission
func WithSyncWrite() Option {
	return func(c *Config) error {
		c.WriteMode = WriteModeSynced
		return nil
	}
}

func buildConfig(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}
