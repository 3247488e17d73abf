/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serbridge "github.com/allbin/go-serbridge"
	"github.com/allbin/go-serbridge/internal/bridge"
	"github.com/allbin/go-serbridge/internal/config"
	"github.com/allbin/go-serbridge/internal/logging"
	"github.com/allbin/go-serbridge/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd bridges the console to the programmer board
var rootCmd = &cobra.Command{
	Use:   "serbridge",
	Short: "Bridge the console to an FPGA programmer over a serial line",
	Long: `Bridge stdin/stdout to a serial-attached FPGA programmer.

Received bytes are printed to stdout, as raw characters or as hex. Lines
typed on stdin are decoded into words and sent to the device, one word per
line. Diagnostics go to stderr.

The device is the first of /dev/ttyUSB0..2 that opens, unless --device is
given. A program image can be uploaded before the session starts.

Example usage:
  serbridge
  serbridge --hex 4 --echo
  serbridge -B 921600 --program image.hex
  serbridge --blocking --hex 2 < words.txt
  SERBRIDGE_DEVICE=/dev/ttyACM0 serbridge`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadViper(cmd, cfgFile)
		if err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		log := logging.New(os.Stderr, cfg.Verbose)
		return bridge.New(cfg, log).Run()
	},
}

// Execute runs the command line and exits non-zero on any failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	addBridgeFlags(rootCmd)
}

// addBridgeFlags declares the session flags. -h selects hex, so help is
// only reachable as --help.
func addBridgeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP(config.KeyBaud, "B", serbridge.DefaultBaudRate, fmt.Sprintf("Baud rate %v", config.SupportedBaudRates))
	f.BoolP(config.KeyASCII, "a", false, "Raw character words (default)")
	f.IntP(config.KeyHex, "h", 0, "Hex words of the given width in bytes (1-4)")
	f.BoolP(config.KeyEcho, "c", false, "Print each word before sending it")
	f.BoolP(config.KeyBlocking, "b", false, "Parse the next word whenever the device is writable")
	f.StringP(config.KeyProgram, "d", "", "Program image to upload before the session")
	f.String(config.KeyProgramFormat, "auto", "Program image format: auto, bin, hex")
	f.BoolP(config.KeySkipRead, "n", false, "Do not open the device for reading")
	f.Bool(config.KeySyncWrite, false, "Open the device with O_SYNC so writes wait for transmission")
	f.String(config.KeyDevice, "", "Device path; disables probing")
	f.String(config.KeyDevicePrefix, serbridge.DefaultDevicePrefix, "Prefix of probed device paths")
	f.Int(config.KeyProbeCount, serbridge.DefaultProbeCount, "Number of probed device paths")
	f.BoolP(config.KeyVerbose, "v", false, "Debug diagnostics")
}

// loadViper layers the parsed flags over the environment, the config file
// and the defaults.
func loadViper(cmd *cobra.Command, file string) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", config.ErrConfiguration, file, err)
		}
	}
	return v, nil
}
