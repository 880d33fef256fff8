package flash

import (
	"io"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// serialPort is the part of serial.Port the transport uses
type serialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

var openPort = func(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// serialTransport is a Transport over a local serial port. Closing the port
// wakes a read blocked inside the serial library, so Close needs no help from
// the reader.
type serialTransport struct {
	name string
	port serialPort

	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	closed bool
}

// OpenSerial will open the named port as 8-N-1 at baud with the given read
// timeout. The port is released again if any part of its setup fails.
func OpenSerial(name string, baud int, timeout time.Duration) (Transport, error) {
	port, err := openPort(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, markErr(ErrOpen, errors.Wrap(err, name))
	}

	if err = port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, markErr(ErrOpen, errors.Wrapf(err, "%s: set read timeout", name))
	}
	if err = port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, markErr(ErrOpen, errors.Wrapf(err, "%s: reset input", name))
	}

	logrus.Debugf("serial open %s @ %d", name, baud)

	return &serialTransport{name: name, port: port}, nil
}

// SerialOpener returns an OpenFunc that opens serial ports with the given
// settings
func SerialOpener(baud int, timeout time.Duration) OpenFunc {
	return func(name string) (Transport, error) {
		return OpenSerial(name, baud, timeout)
	}
}

func (t *serialTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Write will write all of b to the port
func (t *serialTransport) Write(b []byte) error {
	if t.isClosed() {
		return markErr(ErrWrite, ErrClosed)
	}

	for len(b) > 0 {
		n, err := t.port.Write(b)
		if err != nil {
			return markErr(ErrWrite, t.describe(err))
		}
		if n == 0 {
			return markErr(ErrWrite, io.ErrShortWrite)
		}
		logrus.Debugf("radio tx: %x", b[:n])
		b = b[n:]
	}
	return nil
}

// ReadByte will read the next byte from the port within the read timeout
func (t *serialTransport) ReadByte() (byte, error) {
	if t.isClosed() {
		return 0, markErr(ErrRead, ErrClosed)
	}

	buf := make([]byte, 1)
	n, err := t.port.Read(buf)
	if err != nil {
		return 0, markErr(ErrRead, t.describe(err))
	}
	if n == 0 {
		// a closed port can also report an empty read
		if t.isClosed() {
			return 0, markErr(ErrRead, ErrClosed)
		}
		return 0, ErrTimeout
	}

	logrus.Debugf("radio rx: %x", buf[0])

	return buf[0], nil
}

// describe tags the ways a closed port reports itself as ErrClosed
func (t *serialTransport) describe(err error) error {
	var perr *serial.PortError
	if errors.As(err, &perr) && perr.Code() == serial.PortClosed {
		return markErr(ErrClosed, err)
	}
	if errors.Is(err, syscall.EBADF) || t.isClosed() {
		return markErr(ErrClosed, err)
	}
	return err
}

// Close will close the port. Only the first call does anything.
func (t *serialTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		t.closeErr = t.port.Close()
		logrus.Debugf("serial close %s", t.name)
	})
	return t.closeErr
}
