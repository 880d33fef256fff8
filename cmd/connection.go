package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/synthread/rtflash/flash"
	"golang.org/x/term"
)

// GetPassword retrieves the bridge password from the environment or prompts
// for it
func GetPassword() (string, error) {
	if pw := os.Getenv("RTFLASH_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// not a terminal, read a plain line
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", errors.Wrap(err, "failed to read password")
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// connection describes where the radio is reached, from the flags
type connection struct {
	port string
	open flash.OpenFunc
	info string
}

// resolveConnection picks a serial port or a WebSocket bridge based on flags
func resolveConnection() (*connection, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, err
			}
		}

		return &connection{
			port: wsURL,
			open: flash.WebSocketOpener(wsURL, flash.WebSocketOptions{
				Username:      wsUsername,
				Password:      password,
				SkipSSLVerify: wsNoSSLVerify,
				ReadTimeout:   flash.DefaultReadTimeout,
			}),
			info: fmt.Sprintf("WebSocket: %s", wsURL),
		}, nil
	}

	if portName != "" {
		return &connection{
			port: portName,
			info: fmt.Sprintf("Serial: %s @ %d baud", portName, flash.DefaultBaud),
		}, nil
	}

	return nil, errors.New("either --port or --url must be specified (see \"rtflash ports\")")
}
