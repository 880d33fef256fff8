package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/synthread/rtflash/flash"
	"golang.org/x/term"
)

var flashCmd = &cobra.Command{
	Use:   "flash FIRMWARE",
	Short: "Write a firmware image to the radio",
	Long: `Erase the radio's flash and write FIRMWARE to it in 1024 byte blocks.

The image is padded with zeros to a whole number of blocks. Every packet must
be acknowledged by the radio; any timeout or bad acknowledgement stops the
transfer. Press q or Ctrl+C to abort.

On hosts that switch the radio's power and PTT lines through GPIO, pass
--power-gpio (and --ptt-gpio) to put the radio in bootloader mode
automatically.

Exit codes:
  0 - Firmware written
  1 - Flash failed or was aborted`,
	Args: cobra.ExactArgs(1),
	RunE: runFlash,
}

var (
	plainOutput bool
	powerGPIO   int
	pttGPIO     int
)

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().BoolVar(&plainOutput, "plain", false, "Log status lines instead of the interactive view")
	flashCmd.Flags().IntVar(&powerGPIO, "power-gpio", 0, "GPIO switching the radio's power (0 = off)")
	flashCmd.Flags().IntVar(&pttGPIO, "ptt-gpio", 0, "GPIO keying PTT during power up (0 = off)")
}

func runFlash(cmd *cobra.Command, args []string) error {
	fw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "error reading firmware file")
	}
	if len(fw) == 0 {
		return errors.Wrap(flash.ErrEmptyImage, args[0])
	}
	if padded := len(flash.Pad(fw)); padded > 1<<16 {
		logrus.Warnf("image is %d bytes padded; block addresses above 0xFFFF wrap", padded)
	}

	conn, err := resolveConnection()
	if err != nil {
		return err
	}

	ctl := flash.NewController(&flash.Config{
		Open:      conn.open,
		PowerGPIO: powerGPIO,
		PTTGPIO:   pttGPIO,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	op, err := ctl.Start(ctx, conn.port, fw, model)
	if err != nil {
		return err
	}

	if plainOutput || verbose || !term.IsTerminal(int(os.Stdout.Fd())) {
		logrus.Infof("%s, model %s, %d bytes", conn.info, model, len(fw))
		renderPlain(op)
	} else if err := runTUI(op, conn.info, args[0], len(fw)); err != nil {
		op.Abort()
		op.Wait()
		return err
	}

	return op.Wait()
}

// renderPlain logs each status change until the session ends
func renderPlain(op *flash.Operation) {
	last := -1
	for ev := range op.Events() {
		switch ev.State {
		case flash.StateWriting:
			// log whole percent steps only
			if pct := int(ev.Progress); pct != last {
				last = pct
				logrus.Info(ev.Message)
			}
		case flash.StateCompleted:
			logrus.Info(ev.Message)
		case flash.StateFailed, flash.StateAborted:
			logrus.WithError(ev.Err).Error(ev.Message)
		default:
			logrus.Info(ev.Message)
		}
	}
}
