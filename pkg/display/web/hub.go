package web

import (
	"encoding/binary"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"

	"github.com/dmgpace/dmgpace/pkg/log"
)

type hub struct {
	clients map[*client]bool

	broadcast            chan []byte
	register, unregister chan *client

	mu        sync.Mutex
	currentID uint8
	done      chan struct{}
	closeOnce sync.Once

	log log.Logger
}

func newHub(l log.Logger) *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        l,
	}
}

// run serves websocket clients on addr and dispatches broadcasts until
// the hub is closed.
func (h *hub) run(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Errorf("websocket upgrade: %v", err)
			return
		}

		c := h.newClient(conn, r)
		if c == nil {
			conn.Close()
			return
		}
		go c.readPump()
		go c.writePump()
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-h.done
		server.Close()
	}()
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			h.log.Errorf("web display: %v", err)
		}
	}()

	// periodic per-client latency report
	info := time.NewTicker(time.Second)
	defer info.Stop()

	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return nil
		case c := <-h.register:
			h.clients[c] = true
			h.log.Debugf("client %d connected from %s", c.id, c.remoteAddr)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Debugf("client %d disconnected", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client; drop it rather than stall the rest
					close(c.send)
					delete(h.clients, c)
				}
			}
		case <-info.C:
			var data []byte
			for c := range h.clients {
				latency := make([]byte, 2)
				binary.LittleEndian.PutUint16(latency, c.latency())
				data = append(data, c.id)
				data = append(data, latency...)
			}
			if len(data) > 0 {
				h.send(append([]byte{ServerInfo}, data...))
			}
		}
	}
}

// send queues a message for broadcast, dropping it if the hub is
// saturated.
func (h *hub) send(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *hub) close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *hub) newClient(conn *websocket.Conn, r *http.Request) *client {
	h.mu.Lock()
	h.currentID++
	id := h.currentID
	h.mu.Unlock()

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		id:         id,
		remoteAddr: r.RemoteAddr,
	}
	// a connection can still arrive while the hub is shutting down;
	// nobody is draining register then, so bail out instead of
	// blocking the handler forever
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// tcpInfo reads kernel TCP statistics for the connection, used to
// report round trip latency per client.
func tcpInfo(conn *net.TCPConn) (*unix.TCPInfo, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var info *unix.TCPInfo
	ctrlErr := raw.Control(func(fd uintptr) {
		info, err = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	})
	switch {
	case ctrlErr != nil:
		return nil, ctrlErr
	case err != nil:
		return nil, err
	}

	return info, nil
}
