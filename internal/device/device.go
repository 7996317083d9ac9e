// Package device implements the TCP confirmation handshake with the
// attendance display device. The device shows the matched credential on
// its touch screen and the person accepts or declines in place.
package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"net"
	"strings"
	"time"
)

// Outcome is the result of one confirmation handshake.
type Outcome int

const (
	// Confirmed means the device responded and the person accepted.
	Confirmed Outcome = iota
	// Rejected means the device responded without accepting, or the
	// response timed out.
	Rejected
	// Unreachable means no connection to the device could be made.
	Unreachable
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Accepted reports whether the outcome permits an attendance write.
// Rejection and unreachability both block the write.
func (o Outcome) Accepted() bool {
	return o == Confirmed
}

const responseBufferSize = 1024

// confirmToken is the substring the device sends on acceptance.
const confirmToken = "CONFIRM"

// Client sends credential images to the device over a dedicated TCP
// connection per confirmation. Connections are never pooled.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient creates a device client for the given host:port.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Confirm sends a JPEG credential image to the device and waits for the
// person's response. The wire format is a 4-byte little-endian length
// prefix followed by the image bytes.
func (c *Client) Confirm(ctx context.Context, imageJPEG []byte) Outcome {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		log.Printf("device %s unreachable: %v", c.addr, err)
		return Unreachable
	}
	defer conn.Close()

	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		log.Printf("device %s: set deadline: %v", c.addr, err)
		return Rejected
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(imageJPEG)))

	payload := bytes.NewReader(append(header[:], imageJPEG...))
	if _, err := payload.WriteTo(conn); err != nil {
		log.Printf("device %s: send credential: %v", c.addr, err)
		return Rejected
	}

	buf := make([]byte, responseBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		// The person never touched the screen or the device stalled.
		log.Printf("device %s: read response: %v", c.addr, err)
		return Rejected
	}

	response := strings.TrimSpace(string(buf[:n]))
	if strings.Contains(response, confirmToken) {
		return Confirmed
	}
	return Rejected
}
