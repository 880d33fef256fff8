package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/synthread/rtflash/flash"
)

var (
	// Serial connection flags
	portName string

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	modelName string
	verbose   bool

	model flash.Model
)

var rootCmd = &cobra.Command{
	Use:   "rtflash",
	Short: "Radio firmware flasher",
	Long: `rtflash - writes firmware to RT-880 class radios through their serial bootloader.

Put the radio in bootloader mode, connect the programming cable and run
"rtflash flash firmware.bin".

Connection modes:
  Serial:    --port /dev/ttyUSB0
  WebSocket: --url ws://host/path [--username user]

Models:
  radtel (0)  Radtel / Retevis bootloaders (default)
  iradio (1)  iRadio bootloaders

For WebSocket authentication, the password is read from the RTFLASH_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:      "1.0.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		model, err = flash.ParseModel(modelName)
		return err
	},
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket serial bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "radtel", "Radio model: radtel (0) or iradio (1)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log packet traffic")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
