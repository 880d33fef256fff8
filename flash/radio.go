package flash

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var DefaultBaud = 115200
var DefaultTTY = "/dev/ttyUSB0"
var DefaultReadTimeout = 5000 * time.Millisecond

// Config defines configuration for communicating with and flashing the radio
type Config struct {
	TTY            string
	BootloaderBaud int
	ReadTimeout    time.Duration

	// Model selects the checksum seed for every packet of a session
	Model Model

	// PowerGPIO and PTTGPIO switch the radio into its bootloader before the
	// port is opened. Zero disables power control.
	PowerGPIO int
	PTTGPIO   int

	// Open overrides how the transport is opened. The default opens TTY as a
	// serial port.
	Open OpenFunc
}

// Radio represents a radio whose bootloader is reachable over a transport. A
// Radio runs one flash at a time; Abort may be called from any goroutine.
type Radio struct {
	config *Config

	pins *powerPins

	mu      sync.Mutex
	port    Transport
	running bool
	aborted bool
	state   State
}

// NewRadio will create a new reference to a radio
func NewRadio(c *Config) *Radio {
	if c == nil {
		c = &Config{}
	}

	return &Radio{
		config: c,
	}
}

// TTY will return the port name that will be used
func (r *Radio) TTY() string {
	if r.config.TTY != "" {
		return r.config.TTY
	}
	return DefaultTTY
}

// BaudRate will return the baud rate used to connect to the TTY
func (r *Radio) BaudRate() int {
	if r.config.BootloaderBaud > 0 {
		return r.config.BootloaderBaud
	}
	return DefaultBaud
}

// ReadTimeout will return how long to wait for each acknowledgement byte
func (r *Radio) ReadTimeout() time.Duration {
	if r.config.ReadTimeout > 0 {
		return r.config.ReadTimeout
	}
	return DefaultReadTimeout
}

// Model will return the configured radio model
func (r *Radio) Model() Model {
	return r.config.Model
}

// State will report the current session state
func (r *Radio) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Radio) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Radio) opener() OpenFunc {
	if r.config.Open != nil {
		return r.config.Open
	}
	return SerialOpener(r.BaudRate(), r.ReadTimeout())
}

// Open will open the transport and keep it as the radio's active port. The
// port is closed straight away if an abort arrived while it was opening.
func (r *Radio) Open() (Transport, error) {
	r.mu.Lock()
	if r.aborted {
		r.mu.Unlock()
		return nil, ErrAborted
	}
	r.mu.Unlock()

	if r.config.PowerGPIO > 0 {
		if err := r.enterBootloader(); err != nil {
			return nil, err
		}
	}

	port, err := r.opener()(r.TTY())
	if err != nil {
		if !errors.Is(err, ErrOpen) {
			err = markErr(ErrOpen, err)
		}
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted {
		port.Close()
		return nil, ErrAborted
	}
	r.port = port

	return port, nil
}

// Close will close the active port and release the power control lines
func (r *Radio) Close() error {
	r.mu.Lock()
	port := r.port
	r.port = nil
	r.mu.Unlock()

	var err error
	if port != nil {
		err = port.Close()
	}

	r.releasePins()

	return err
}

// IsOpen reports whether the radio holds an open port
func (r *Radio) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port != nil
}

// Abort will stop a running flash by closing its port. A blocked read or
// write fails at once and the flash ends as aborted. Abort has no effect when
// no flash is running.
func (r *Radio) Abort() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.aborted = true
	port := r.port
	r.mu.Unlock()

	if port != nil {
		port.Close()
	}
}

// Running reports whether a flash is in progress
func (r *Radio) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// begin will claim the radio for one flash
func (r *Radio) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrBusy
	}
	r.running = true
	r.aborted = false
	r.state = StateIdle
	return nil
}

// end will release the radio after a flash reached state s
func (r *Radio) end(s State) {
	r.mu.Lock()
	r.running = false
	r.state = s
	r.mu.Unlock()
}

func (r *Radio) isAborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}
