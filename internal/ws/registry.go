package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = 5 * time.Second

var errConnClosed = errors.New("connection closed")

// transport is the subset of *websocket.Conn the registry needs. Tests
// substitute an in-memory implementation.
type transport interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Conn is one live connection for one user. Writes are serialized through a
// mutex because frames are written both by the owning read loop and by other
// users' read loops fanning out to this connection.
type Conn struct {
	UserID int64

	mu         sync.Mutex
	sock       transport
	closed     bool
	superseded bool
}

func NewConn(userID int64, sock transport) *Conn {
	return &Conn{UserID: userID, sock: sock}
}

// Send writes a JSON frame. A write failure marks the connection dead so the
// registry's next Lookup evicts it.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	if err := c.sock.WriteJSON(v); err != nil {
		c.closed = true
		return err
	}
	return nil
}

// Alive reports whether the connection is still usable.
func (c *Conn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Superseded reports whether a newer connection replaced this one. The
// disconnect path checks it to skip cleanup the replacement now owns.
func (c *Conn) Superseded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.superseded
}

// MarkClosed flags the connection dead without a close handshake, used when
// the read loop exits.
func (c *Conn) MarkClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// CloseWith sends a close frame with the given status code and closes the
// transport. No-op on an already-closed connection.
func (c *Conn) CloseWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	_ = c.sock.Close()
}

func (c *Conn) markSuperseded() {
	c.mu.Lock()
	c.superseded = true
	c.mu.Unlock()
}

// Registry maps each user to at most one live connection.
type Registry struct {
	mu    sync.Mutex
	conns map[int64]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]*Conn)}
}

// Register installs conn as the user's live connection. An existing
// connection for the same user is marked superseded, so its own disconnect
// handler skips cleanup, and closed with a normal-closure code.
func (r *Registry) Register(userID int64, conn *Conn) {
	r.mu.Lock()
	old := r.conns[userID]
	if old == conn {
		r.mu.Unlock()
		return
	}
	if old != nil {
		old.markSuperseded()
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	if old != nil {
		old.CloseWith(websocket.CloseNormalClosure, "New connection established")
	}
}

// Lookup returns the user's live connection, lazily evicting a dead entry.
// A connection that died without a close event lingers until the next
// Lookup touches it.
func (r *Registry) Lookup(userID int64) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn := r.conns[userID]
	if conn == nil {
		return nil
	}
	if !conn.Alive() {
		delete(r.conns, userID)
		return nil
	}
	return conn
}

// Evict removes the mapping only if conn is still the registered connection,
// so a superseded connection's delayed disconnect cannot evict its
// replacement.
func (r *Registry) Evict(userID int64, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] == conn {
		delete(r.conns, userID)
	}
}
