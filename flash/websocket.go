package flash

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// wsConn is the part of websocket.Conn the transport uses
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsTransport tunnels the bootloader byte stream through a WebSocket serial
// bridge. Each binary message carries raw serial bytes.
type wsTransport struct {
	url     string
	conn    wsConn
	timeout time.Duration

	buf []byte

	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	closed bool
}

// WebSocketOptions configures a bridge connection
type WebSocketOptions struct {
	Username      string
	Password      string
	SkipSSLVerify bool
	ReadTimeout   time.Duration
}

// OpenWebSocket will dial a serial bridge at rawURL
func OpenWebSocket(rawURL string, o WebSocketOptions) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, markErr(ErrOpen, errors.Wrap(err, "invalid URL"))
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, markErr(ErrOpen, errors.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme))
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: o.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if o.Username != "" && o.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(o.Username + ":" + o.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, markErr(ErrOpen, errors.Wrapf(err, "%s (HTTP %d)", rawURL, resp.StatusCode))
		}
		return nil, markErr(ErrOpen, errors.Wrap(err, rawURL))
	}

	logrus.Debugf("websocket open %s", rawURL)

	return newWSTransport(rawURL, conn, o.ReadTimeout), nil
}

// WebSocketOpener returns an OpenFunc that ignores the port name and dials
// the bridge at rawURL
func WebSocketOpener(rawURL string, o WebSocketOptions) OpenFunc {
	return func(string) (Transport, error) {
		return OpenWebSocket(rawURL, o)
	}
}

func newWSTransport(rawURL string, conn wsConn, timeout time.Duration) *wsTransport {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &wsTransport{url: rawURL, conn: conn, timeout: timeout}
}

func (t *wsTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *wsTransport) Write(b []byte) error {
	if t.isClosed() {
		return markErr(ErrWrite, ErrClosed)
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	if err := t.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		if t.isClosed() {
			return markErr(ErrWrite, markErr(ErrClosed, err))
		}
		return markErr(ErrWrite, err)
	}

	logrus.Debugf("radio tx: %x", b)
	return nil
}

func (t *wsTransport) ReadByte() (byte, error) {
	if t.isClosed() {
		return 0, markErr(ErrRead, ErrClosed)
	}

	deadline := time.Now().Add(t.timeout)
	for len(t.buf) == 0 {
		t.conn.SetReadDeadline(deadline)
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.isClosed() {
				return 0, markErr(ErrRead, markErr(ErrClosed, err))
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return 0, ErrTimeout
			}
			return 0, markErr(ErrRead, err)
		}

		// only binary messages carry serial data
		if messageType != websocket.BinaryMessage {
			continue
		}
		t.buf = data
	}

	b := t.buf[0]
	t.buf = t.buf[1:]

	logrus.Debugf("radio rx: %x", b)

	return b, nil
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		t.closeErr = t.conn.Close()
		logrus.Debugf("websocket close %s", t.url)
	})
	return t.closeErr
}
