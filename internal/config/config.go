// Package config builds the immutable bridge configuration from flags,
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/codec"
	"github.com/allbin/go-serbridge/internal/upload"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("invalid configuration")

// InputMode selects how outbound words are acquired
type InputMode int

const (
	// Interactive reads input byte by byte only when nothing is pending
	Interactive InputMode = iota
	// Blocking parses the next word synchronously whenever the device is writable
	Blocking
)

func (m InputMode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	default:
		return "interactive"
	}
}

// Keys shared by the flag set, environment and config file
const (
	KeyBaud          = "baud"
	KeyASCII         = "ascii"
	KeyHex           = "hex"
	KeyEcho          = "echo"
	KeyBlocking      = "blocking"
	KeyDevice        = "device"
	KeyDevicePrefix  = "device-prefix"
	KeyProbeCount    = "probe-count"
	KeyProgram       = "program"
	KeyProgramFormat = "program-format"
	KeySkipRead      = "skip-read"
	KeySyncWrite     = "sync-write"
	KeyVerbose       = "verbose"
)

// EnvPrefix namespaces environment overrides, e.g. SERBRIDGE_BAUD
const EnvPrefix = "SERBRIDGE"

// SupportedBaudRates are the rates the programmer firmware accepts
var SupportedBaudRates = []int{9600, 230400, 460800, 921600}

// Config is constructed once and passed by value; nothing mutates it
type Config struct {
	BaudRate      int
	Width         int // 0 ASCII, 1..4 hex bytes
	Echo          bool
	Mode          InputMode
	DevicePath    string // explicit device, disables probing
	DevicePrefix  string
	ProbeCount    int
	ProgramPath   string
	ProgramFormat upload.Format
	SkipRead      bool
	SyncWrite     bool // O_SYNC on the write descriptor
	Verbose       bool
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		BaudRate:     serbridge.DefaultBaudRate,
		Width:        codec.ASCII,
		Mode:         Interactive,
		DevicePrefix: serbridge.DefaultDevicePrefix,
		ProbeCount:   serbridge.DefaultProbeCount,
	}
}

// SetDefaults registers the defaults on v so unset keys resolve sensibly
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBaud, d.BaudRate)
	v.SetDefault(KeyHex, 0)
	v.SetDefault(KeyDevicePrefix, d.DevicePrefix)
	v.SetDefault(KeyProbeCount, d.ProbeCount)
	v.SetDefault(KeyProgramFormat, d.ProgramFormat.String())
}

// BindEnv makes every key overridable through SERBRIDGE_<KEY>
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load resolves and validates a Config from v
func Load(v *viper.Viper) (Config, error) {
	c := Default()

	c.BaudRate = v.GetInt(KeyBaud)
	if !supportedBaud(c.BaudRate) {
		return Config{}, fmt.Errorf("%w: unsupported baud rate %d (valid: %v)", ErrConfiguration, c.BaudRate, SupportedBaudRates)
	}

	ascii := v.GetBool(KeyASCII)
	hexSet := v.IsSet(KeyHex) && v.GetInt(KeyHex) != 0
	switch {
	case ascii && hexSet:
		return Config{}, fmt.Errorf("%w: --ascii and --hex are mutually exclusive", ErrConfiguration)
	case hexSet:
		c.Width = v.GetInt(KeyHex)
	default:
		c.Width = codec.ASCII
	}
	if !codec.ValidWidth(c.Width) {
		return Config{}, fmt.Errorf("%w: hex width %d out of range 1..%d", ErrConfiguration, c.Width, codec.MaxWidth)
	}

	c.Echo = v.GetBool(KeyEcho)
	if v.GetBool(KeyBlocking) {
		c.Mode = Blocking
	}
	c.SkipRead = v.GetBool(KeySkipRead)
	c.SyncWrite = v.GetBool(KeySyncWrite)
	c.Verbose = v.GetBool(KeyVerbose)

	c.DevicePath = v.GetString(KeyDevice)
	c.DevicePrefix = v.GetString(KeyDevicePrefix)
	c.ProbeCount = v.GetInt(KeyProbeCount)
	if c.DevicePath == "" && (c.DevicePrefix == "" || c.ProbeCount < 1) {
		return Config{}, fmt.Errorf("%w: need --device or a device prefix with probe count >= 1", ErrConfiguration)
	}

	c.ProgramPath = v.GetString(KeyProgram)
	format, err := upload.ParseFormat(v.GetString(KeyProgramFormat))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	c.ProgramFormat = format

	return c, nil
}

// Candidates lists the device paths to try, in order
func (c Config) Candidates() []string {
	if c.DevicePath != "" {
		return []string{c.DevicePath}
	}
	return serbridge.Candidates(c.DevicePrefix, c.ProbeCount)
}

// IOName describes the word format for diagnostics
func (c Config) IOName() string {
	if c.Width == codec.ASCII {
		return "ascii"
	}
	return fmt.Sprintf("hex %d", c.Width)
}

func supportedBaud(rate int) bool {
	for _, r := range SupportedBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}
