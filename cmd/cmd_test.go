package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/config"
	"github.com/allbin/go-serbridge/internal/upload"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addBridgeFlags(c)
	require.NoError(t, c.ParseFlags(args))

	v, err := loadViper(c, "")
	require.NoError(t, err)
	return config.Load(v)
}

func TestBridgeFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c config.Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, c config.Config) {
				assert.Equal(t, 460800, c.BaudRate)
				assert.Equal(t, 0, c.Width)
				assert.Equal(t, config.Interactive, c.Mode)
				assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"}, c.Candidates())
			},
		},
		{
			name: "short flags",
			args: []string{"-B", "9600", "-h", "4", "-c", "-b", "-n", "-v", "--sync-write"},
			check: func(t *testing.T, c config.Config) {
				assert.Equal(t, 9600, c.BaudRate)
				assert.Equal(t, 4, c.Width)
				assert.True(t, c.Echo)
				assert.Equal(t, config.Blocking, c.Mode)
				assert.True(t, c.SkipRead)
				assert.True(t, c.SyncWrite)
				assert.True(t, c.Verbose)
			},
		},
		{
			name: "program",
			args: []string{"-d", "image.bin", "--program-format", "hex"},
			check: func(t *testing.T, c config.Config) {
				assert.Equal(t, "image.bin", c.ProgramPath)
				assert.Equal(t, upload.FormatHexWords, c.ProgramFormat)
			},
		},
		{
			name: "explicit device",
			args: []string{"--device", "/dev/ttyACM0"},
			check: func(t *testing.T, c config.Config) {
				assert.Equal(t, []string{"/dev/ttyACM0"}, c.Candidates())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parse(t, tt.args...)
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestBridgeFlagsRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unsupported baud", []string{"-B", "115200"}},
		{"ascii and hex", []string{"-a", "-h", "2"}},
		{"hex width", []string{"-h", "5"}},
		{"program format", []string{"--program-format", "elf"}},
		{"no probe candidates", []string{"--probe-count", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SERBRIDGE_BAUD", "921600")
	t.Setenv("SERBRIDGE_HEX", "2")

	c, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, 921600, c.BaudRate)
	assert.Equal(t, 2, c.Width)

	c, err = parse(t, "-B", "230400")
	require.NoError(t, err)
	assert.Equal(t, 230400, c.BaudRate, "flags win over the environment")
}

func TestConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "serbridge.yaml")
	require.NoError(t, os.WriteFile(file, []byte("baud: 230400\necho: true\nhex: 1\n"), 0o644))

	c := &cobra.Command{Use: "test"}
	addBridgeFlags(c)
	require.NoError(t, c.ParseFlags(nil))

	v, err := loadViper(c, file)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 230400, cfg.BaudRate)
	assert.True(t, cfg.Echo)
	assert.Equal(t, 1, cfg.Width)

	_, err = loadViper(c, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyAMA0", "/dev/ttyS0", "/dev/ttySAC1", "/dev/ttyUSB0"}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", ports},
		{"all", ports},
		{"usb", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"USB", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"arm", []string{"/dev/ttyAMA0"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := filterPorts(ports, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := filterPorts(ports, "bluetooth")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []*serbridge.PortInfo{
		{Name: "ttyUSB0", Path: "/dev/ttyUSB0", Description: "USB Serial Port", VendorID: "0403", ProductID: "6010", Product: "Dual RS232"},
		{Name: "ttyS0", Path: "/dev/ttyS0", Description: "Standard Serial Port"},
	})

	out := buf.String()
	assert.Contains(t, out, "Found 2 serial port(s)")
	assert.Contains(t, out, "/dev/ttyUSB0")
	assert.Contains(t, out, "0403:6010")
	assert.Contains(t, out, "/dev/ttyS0")
}

func TestRenderSimple(t *testing.T) {
	var buf bytes.Buffer
	renderSimple(&buf, []string{"/dev/ttyS0", "/dev/ttyUSB1"})
	assert.Contains(t, buf.String(), "/dev/ttyS0\n")
	assert.Contains(t, buf.String(), "/dev/ttyUSB1")
}
