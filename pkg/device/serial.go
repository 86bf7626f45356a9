package device

import (
	"io"
	"sync"
)

// Endpoint is the host-terminal equivalent the serial device talks to,
// abstracted over io.Reader/io.Writer plus a non-blocking availability
// check so any host-terminal equivalent can stand in for a real tty.
type Endpoint interface {
	io.Reader
	io.Writer
	Available() bool
}

// Serial is a two-register MMIO device: offset 0 is a non-blocking status
// poll, offset 1 is a blocking byte of data.
type Serial struct {
	conn Endpoint
}

// NewSerial binds a Serial device to a host endpoint.
func NewSerial(conn Endpoint) *Serial {
	return &Serial{conn: conn}
}

// ReadU8 implements the two-register contract; any other offset returns
// 0xFF like an unmapped byte read.
func (s *Serial) ReadU8(offset uint16) uint8 {
	switch offset {
	case 0:
		if s.conn.Available() {
			return 1
		}
		return 0
	case 1:
		var buf [1]byte
		if _, err := io.ReadFull(s.conn, buf[:]); err != nil {
			return 0
		}
		return buf[0]
	default:
		return 0xFF
	}
}

// WriteU8 sends a byte to the data register; the status register ignores
// writes.
func (s *Serial) WriteU8(offset uint16, value uint8) {
	if offset == 1 {
		s.conn.Write([]byte{value})
	}
}

// TerminalEndpoint adapts a blocking io.Reader (e.g. os.Stdin) into an
// Endpoint with a non-blocking Available() check, by pumping bytes through
// a background goroutine into a one-slot lookahead buffer.
type TerminalEndpoint struct {
	out io.Writer
	ch  chan byte

	mu     sync.Mutex
	peeked *byte
}

// NewTerminalEndpoint starts the reader pump and returns the endpoint. The
// pump goroutine exits when in returns an error (including EOF).
func NewTerminalEndpoint(in io.Reader, out io.Writer) *TerminalEndpoint {
	t := &TerminalEndpoint{out: out, ch: make(chan byte, 1)}
	go func() {
		var buf [1]byte
		for {
			n, err := in.Read(buf[:])
			if n > 0 {
				t.ch <- buf[0]
			}
			if err != nil {
				close(t.ch)
				return
			}
		}
	}()
	return t
}

// Available reports whether a byte can be read without blocking.
func (t *TerminalEndpoint) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.peeked != nil {
		return true
	}
	select {
	case b, ok := <-t.ch:
		if !ok {
			return false
		}
		t.peeked = &b
		return true
	default:
		return false
	}
}

// Read blocks for exactly one byte, per the serial data register's contract.
func (t *TerminalEndpoint) Read(p []byte) (int, error) {
	t.mu.Lock()
	if t.peeked != nil {
		p[0] = *t.peeked
		t.peeked = nil
		t.mu.Unlock()
		return 1, nil
	}
	t.mu.Unlock()

	b, ok := <-t.ch
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (t *TerminalEndpoint) Write(p []byte) (int, error) {
	return t.out.Write(p)
}
