package flash

// Transport is a byte-level link to the radio bootloader. Close may be called
// from any goroutine and must make a blocked ReadByte or Write return
// promptly.
type Transport interface {
	// Write will send b in full, returning an error wrapping ErrWrite on any
	// fault
	Write(b []byte) error

	// ReadByte will wait for a single byte. It returns ErrTimeout when the
	// read window elapses and an error wrapping ErrRead for hard faults.
	ReadByte() (byte, error)

	// Close is idempotent
	Close() error
}

// OpenFunc opens a transport to the named port
type OpenFunc func(name string) (Transport, error)
