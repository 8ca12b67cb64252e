package core

import (
	"sync"
	"time"
)

// outboundQueueSize bounds the per-client send queue. A peer that cannot
// drain this many frames is closed rather than allowed to stall broadcasts.
const outboundQueueSize = 32

// Client is a connected peer as seen by the relay. The transport layer owns
// the underlying socket; the relay only ever touches the outbound queue.
type Client struct {
	ID        string
	Role      string // "scratch", "minecraft", or empty until registered
	Connected time.Time

	out     chan []byte
	done    chan struct{}
	closing sync.Once
	cleanup sync.Once
}

// NewClient constructs a client with an initialized outbound queue.
func NewClient(id string) *Client {
	return &Client{
		ID:        id,
		Connected: time.Now(),
		out:       make(chan []byte, outboundQueueSize),
		done:      make(chan struct{}),
	}
}

// Send enqueues a frame without blocking. It returns false when the client
// is closed or its queue is full; a full queue closes the client so a dead
// peer cannot wedge the broadcaster.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- payload:
		return true
	default:
		c.Close()
		return false
	}
}

// Out is drained by the transport's write loop.
func (c *Client) Out() <-chan []byte {
	return c.out
}

// Close marks the client unusable for further sends. Safe to call more than
// once and from any goroutine.
func (c *Client) Close() {
	c.closing.Do(func() { close(c.done) })
}

// Done is closed once the client has been shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Closed reports whether the client has been shut down.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
