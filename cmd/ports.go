package cmd

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this host. USB adapters show their vendor and
product IDs, which helps telling the programming cable apart.`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return errors.Wrap(err, "could not list ports")
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	for _, p := range ports {
		if !p.IsUSB {
			fmt.Println(p.Name)
			continue
		}
		fmt.Printf("%-20s USB %s:%s", p.Name, p.VID, p.PID)
		if p.Product != "" {
			fmt.Printf("  %s", p.Product)
		}
		if p.SerialNumber != "" {
			fmt.Printf("  (serial %s)", p.SerialNumber)
		}
		fmt.Println()
	}
	return nil
}
