// rtflash writes firmware to RT-880 class radios over their serial
// bootloader.
package main

import (
	"os"

	"github.com/synthread/rtflash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
