package flash

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrOpen = errors.New("could not open port")
var ErrWrite = errors.New("port write error")
var ErrRead = errors.New("port read error")
var ErrTimeout = errors.New("timed out reading from radio")
var ErrClosed = errors.New("port is closed")

var ErrEmptyImage = errors.New("firmware image is empty")
var ErrBusy = errors.New("a flash session is already active")
var ErrAborted = errors.New("flash aborted")

// kindError tags cause with one of the sentinel errors above. errors.Is
// matches both the sentinel and anything in the cause chain.
type kindError struct {
	kind  error
	cause error
}

// markErr will tag cause as being of kind, keeping cause unwrappable
func markErr(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &kindError{kind: kind, cause: cause}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// BadAckError is returned when the radio answers a packet with anything other
// than ACK
type BadAckError struct {
	Got byte
}

func (e *BadAckError) Error() string {
	return fmt.Sprintf("bad acknowledgement: got 0x%02X, want 0x%02X", e.Got, b_ACK)
}

// Step names the protocol step a failure happened in
type Step string

const (
	StepEraseUnlock  Step = "erase-unlock"
	StepEraseConfirm Step = "erase-confirm"
	StepWrite        Step = "write"
	StepFinal        Step = "final"
)

// StepError wraps a transport or acknowledgement failure with the step and
// image offset it occurred at
type StepError struct {
	Step   Step
	Offset int
	Err    error
}

func (e *StepError) Error() string {
	if e.Step == StepWrite {
		return fmt.Sprintf("%s at offset 0x%05X: %v", e.Step, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// statusMessage is the human readable terminal status for err
func statusMessage(err error, port string) string {
	var bad *BadAckError
	switch {
	case err == nil:
		return "Firmware Flash Finished Okay"
	case errors.Is(err, ErrAborted):
		return "Firmware Flash Aborted"
	case errors.Is(err, ErrEmptyImage):
		return "Firmware file is empty."
	case errors.Is(err, ErrOpen):
		return "Cannot open port: " + port
	case errors.Is(err, ErrWrite):
		return "COM Port Write Error/Abort"
	case errors.Is(err, ErrTimeout):
		return "COM Port Timeout"
	case errors.Is(err, ErrRead):
		return "COM Port Read Error/Abort"
	case errors.As(err, &bad):
		return "Bad Acknowledgement"
	}
	return "Flash Error: " + err.Error()
}
