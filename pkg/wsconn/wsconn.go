// Package wsconn wraps a gorilla websocket connection with a single writer
// goroutine and two outbound lanes: a reliable FIFO for discrete events and a
// bounded drop-oldest lane for volatile payloads such as video frames.
package wsconn

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("slow consumer")
)

const (
	defaultEventQueueSize    = 64
	defaultVolatileQueueSize = 8
)

type message struct {
	messageType int
	data        []byte
}

type Conn struct {
	ws        *websocket.Conn
	events    chan message
	volatile  chan message
	done      chan struct{}
	closeOnce sync.Once
}

func New(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:       ws,
		events:   make(chan message, defaultEventQueueSize),
		volatile: make(chan message, defaultVolatileQueueSize),
		done:     make(chan struct{}),
	}

	go c.writePump()

	return c
}

func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.events:
			if err := c.ws.WriteMessage(msg.messageType, msg.data); err != nil {
				c.Close()
				return
			}
		case msg := <-c.volatile:
			if err := c.ws.WriteMessage(msg.messageType, msg.data); err != nil {
				c.Close()
				return
			}
		}
	}
}

// Send enqueues a reliable text message. It never blocks: if the queue is full
// the connection is closed, since dropping a discrete event would leave the
// client permanently behind while a reconnect gets it a fresh snapshot.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.events <- message{websocket.TextMessage, data}:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.Close()
		return ErrSlowConsumer
	}
}

// SendVolatile enqueues a best-effort text message. Reports whether the
// message was accepted; on overflow the oldest queued entry is evicted first.
func (c *Conn) SendVolatile(data []byte) bool {
	return c.sendVolatile(message{websocket.TextMessage, data})
}

// SendVolatileBinary enqueues a best-effort binary message.
func (c *Conn) SendVolatileBinary(data []byte) bool {
	return c.sendVolatile(message{websocket.BinaryMessage, data})
}

func (c *Conn) sendVolatile(msg message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.volatile <- msg:
		return true
	default:
	}

	// queue full: evict the oldest entry and retry once
	select {
	case <-c.volatile:
	default:
	}

	select {
	case c.volatile <- msg:
		return true
	default:
		return false
	}
}

func (c *Conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.done != nil {
			close(c.done)
		}
		if c.ws != nil {
			c.ws.Close()
		}
	})
	return nil
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}
