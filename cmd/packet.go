package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/synthread/rtflash/flash"
)

var packetCmd = &cobra.Command{
	Use:   "packet [FIRMWARE]",
	Short: "Show the packets a flash would send",
	Long: `Print the erase packets for the selected model in hex. With FIRMWARE, also
print the header and checksum of every write packet, without touching a port.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPacket,
}

func init() {
	rootCmd.AddCommand(packetCmd)
}

func runPacket(cmd *cobra.Command, args []string) error {
	unlock, confirm := flash.ErasePackets(model)

	fmt.Printf("Model: %s (checksum seed 0x%02X)\n\n", model, model.Seed())
	fmt.Printf("erase unlock  % X  (sent twice)\n", unlock)
	fmt.Printf("erase confirm % X\n", confirm)

	if len(args) == 0 {
		return nil
	}

	fw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "error reading firmware file")
	}
	if len(fw) == 0 {
		return errors.Wrap(flash.ErrEmptyImage, args[0])
	}

	padded := flash.Pad(fw)
	fmt.Printf("\n%d bytes, %d blocks\n", len(fw), len(padded)/flash.BlockSize)
	for offset := 0; offset < len(padded); offset += flash.BlockSize {
		pkt := flash.WritePacket(padded, offset, model.Seed())
		note := ""
		if offset > 0xFFFF {
			note = "  address wrapped"
		}
		fmt.Printf("write %06X  % X ... %02X%s\n", offset, pkt[:3], pkt[len(pkt)-1], note)
	}
	return nil
}
