package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	maxFrameSize   = 512 * 1024 // 512KB max message size
	outboundBuffer = 256
)

var (
	errConnClosed = errors.New("connection closed")
	errBufferFull = errors.New("outbound buffer full")
)

// Conn adapts a gorilla websocket to the transport contract. Outbound
// frames go through a buffered channel drained by a dedicated writeLoop, so
// a broadcaster is never blocked by this peer: when the buffer is full the
// send fails and the registry treats the connection as dead.
type Conn struct {
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	out    chan []byte
	once   sync.Once
}

func NewConn(parent context.Context, wsConn *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(parent)
	wsConn.SetReadLimit(maxFrameSize)
	c := &Conn{
		ws:     wsConn,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte, outboundBuffer),
	}
	go c.writeLoop()
	return c
}

// ReadMessage blocks until the next inbound frame or a transport error.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			return data, nil
		}
	}
}

func (c *Conn) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errBufferFull
	}
}

// ClosePolicyViolation sends a 1008 close frame before tearing down the
// transport. Used when authentication or authorization fails at entry.
func (c *Conn) ClosePolicyViolation(reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	c.Close()
}

func (c *Conn) Close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
