package flash

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// bridgeServer answers every binary message with a text message, which the
// transport must skip, and the bytes ACK 0x15. Messages starting with 0xEE
// get no answer.
func bridgeServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); ok && (user != "radio" || pass != "secret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if len(data) > 0 && data[0] == 0xEE {
				continue
			}
			c.WriteMessage(websocket.TextMessage, []byte("status"))
			c.WriteMessage(websocket.BinaryMessage, []byte{b_ACK, 0x15})
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_ReadWrite(t *testing.T) {
	url := bridgeServer(t)

	tr, err := OpenWebSocket(url, WebSocketOptions{
		Username:    "radio",
		Password:    "secret",
		ReadTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("OpenWebSocket: %v", err)
	}
	defer tr.Close()

	if err := tr.Write([]byte{0x39, 0x33, 0x05, 0x10, 0xD3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, want := range []byte{b_ACK, 0x15} {
		b, err := tr.ReadByte()
		if err != nil || b != want {
			t.Fatalf("ReadByte = 0x%02X, %v; want 0x%02X", b, err, want)
		}
	}
}

func TestWebSocket_Timeout(t *testing.T) {
	url := bridgeServer(t)

	tr, err := OpenWebSocket(url, WebSocketOptions{ReadTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	if err := tr.Write([]byte{0xEE}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.ReadByte(); err != ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestWebSocket_CloseUnblocksRead(t *testing.T) {
	url := bridgeServer(t)

	tr, err := OpenWebSocket(url, WebSocketOptions{ReadTimeout: 10 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := tr.ReadByte()
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tr.Close()
	tr.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrRead) || !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want closed ErrRead", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close did not unblock the read")
	}
}

func TestWebSocket_BadURL(t *testing.T) {
	for _, url := range []string{"http://example.com/ws", "://bad"} {
		if _, err := OpenWebSocket(url, WebSocketOptions{}); !errors.Is(err, ErrOpen) {
			t.Errorf("OpenWebSocket(%q) = %v, want ErrOpen", url, err)
		}
	}
}

func TestWebSocket_FlashThroughBridge(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	var packets [][]byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			packets = append(packets, data)
			mu.Unlock()
			reply := []byte{b_ACK}
			if data[0] == CmdWrite {
				// the final handshake ACK arrives with the last block's
				reply = append(reply, b_ACK)
			}
			c.WriteMessage(websocket.BinaryMessage, reply)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	r := NewRadio(&Config{
		Open: WebSocketOpener(url, WebSocketOptions{ReadTimeout: time.Second}),
	})

	if err := r.Flash(image(1024), nil); err != nil {
		t.Fatalf("Flash: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(packets) != 4 {
		t.Fatalf("bridge saw %d packets, want 4", len(packets))
	}
	if packets[3][0] != CmdWrite || len(packets[3]) != BlockSize+4 {
		t.Errorf("last packet = % X...", packets[3][:4])
	}
}
