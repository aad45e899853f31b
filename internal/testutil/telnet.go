package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/gamzia/internal/frontend/telnet"
)

// ShellPrompt is the plain-text prompt printed by the dice shell.
const ShellPrompt = "dice> "

// TelnetClient is a simple Telnet test client for integration testing.
type TelnetClient struct {
	conn    net.Conn
	t       *testing.T
	timeout time.Duration
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() {
		conn.Close()
	})

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return &TelnetClient{conn: conn, t: t, timeout: 5 * time.Second}
}

// ReadUntil reads data until the specified substring is found or timeout occurs.
// Telnet negotiations and ANSI styling are removed before matching.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the accumulated plain output up to and including the match.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	var raw []byte
	tmp := make([]byte, 1024)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			raw = append(raw, tmp[:n]...)
			plain := telnet.StripANSI(string(telnet.FilterIAC(raw)))
			if i := strings.Index(plain, substr); i >= 0 {
				return plain[:i+len(substr)]
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, raw, err)
		}
	}
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// WaitPrompt reads until the shell prompt and returns the preceding output.
func (c *TelnetClient) WaitPrompt() string {
	c.t.Helper()
	out := c.ReadUntil(ShellPrompt, c.timeout)
	return strings.TrimSuffix(out, ShellPrompt)
}

// Command sends text and returns the plain output printed before the next prompt.
func (c *TelnetClient) Command(text string) string {
	c.t.Helper()
	c.Send(text)
	return c.WaitPrompt()
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
