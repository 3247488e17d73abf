package config

import (
	"testing"

	"github.com/allbin/go-serbridge/internal/upload"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, 460800, c.BaudRate)
	assert.Equal(t, 0, c.Width)
	assert.Equal(t, Interactive, c.Mode)
	assert.False(t, c.Echo)
	assert.False(t, c.SkipRead)
	assert.Equal(t, upload.FormatAuto, c.ProgramFormat)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"}, c.Candidates())
	assert.Equal(t, "ascii", c.IOName())
}

func TestLoadOptions(t *testing.T) {
	c, err := Load(newViper(map[string]any{
		KeyBaud:          921600,
		KeyHex:           2,
		KeyEcho:          true,
		KeyBlocking:      true,
		KeyProgram:       "prog.hex",
		KeyProgramFormat: "bin",
		KeySkipRead:      true,
		KeySyncWrite:     true,
		KeyDevice:        "/dev/ttyACM0",
	}))
	require.NoError(t, err)

	assert.Equal(t, 921600, c.BaudRate)
	assert.Equal(t, 2, c.Width)
	assert.True(t, c.Echo)
	assert.Equal(t, Blocking, c.Mode)
	assert.Equal(t, "prog.hex", c.ProgramPath)
	assert.Equal(t, upload.FormatBinary, c.ProgramFormat)
	assert.True(t, c.SkipRead)
	assert.True(t, c.SyncWrite)
	assert.Equal(t, []string{"/dev/ttyACM0"}, c.Candidates())
	assert.Equal(t, "hex 2", c.IOName())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"baud not supported", map[string]any{KeyBaud: 115200}},
		{"hex width too large", map[string]any{KeyHex: 5}},
		{"hex width negative", map[string]any{KeyHex: -1}},
		{"ascii and hex", map[string]any{KeyASCII: true, KeyHex: 4}},
		{"bad program format", map[string]any{KeyProgramFormat: "srec"}},
		{"no candidates", map[string]any{KeyProbeCount: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(tt.values))
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestSupportedBaudRates(t *testing.T) {
	for _, rate := range []int{9600, 230400, 460800, 921600} {
		_, err := Load(newViper(map[string]any{KeyBaud: rate}))
		assert.NoError(t, err, "baud %d", rate)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERBRIDGE_BAUD", "9600")
	t.Setenv("SERBRIDGE_HEX", "4")
	t.Setenv("SERBRIDGE_SKIP_READ", "true")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9600, c.BaudRate)
	assert.Equal(t, 4, c.Width)
	assert.True(t, c.SkipRead)
}

func TestInputModeString(t *testing.T) {
	assert.Equal(t, "interactive", Interactive.String())
	assert.Equal(t, "blocking", Blocking.String())
}
