package web

import (
	"math"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	mu   sync.Mutex
	hub  *hub
	conn *websocket.Conn
	send chan []byte

	id         uint8
	remoteAddr string

	avgLatency uint16
}

// readPump drains incoming messages until the connection drops. The
// display is one-way; clients only ever send a close request.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return // connection closed
		}
		if len(message) > 0 && message[0] == 0xFF {
			return // client requested close
		}
	}
}

// writePump forwards queued messages to the client and keeps a rolling
// average of its round trip latency.
func (c *client) writePump() {
	defer c.conn.WriteMessage(websocket.CloseMessage, []byte{})

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
			return
		}

		tcpConn, ok := c.conn.UnderlyingConn().(*net.TCPConn)
		if !ok {
			continue
		}
		info, err := tcpInfo(tcpConn)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.avgLatency = ewma(c.avgLatency, info.Rtt)
		c.mu.Unlock()
	}
}

func (c *client) latency() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avgLatency
}

// ewma folds a round trip time sample (microseconds) into the rolling
// millisecond average. The arithmetic runs in 32 bits and saturates on
// narrowing, so a pathological multi-second RTT cannot wrap the
// average.
func ewma(avg uint16, rttMicros uint32) uint16 {
	v := (uint32(avg)*9 + rttMicros/1000) / 10
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
