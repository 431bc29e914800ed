// Package websocket serves bridged packets to websocket clients.
package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/uart.go/pkg/framework"
)

// Hub broadcasts written packets to all connected clients and reads
// packets sent by any client.
type Hub struct {
	// Listen is the address Run serves on, Run only waits if empty.
	Listen string

	lock     sync.Mutex
	clients  map[*websocket.Conn]struct{}
	packetCh chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewHub creates a Hub.
func NewHub(listen string) *Hub {
	return &Hub{
		Listen:   listen,
		clients:  make(map[*websocket.Conn]struct{}),
		packetCh: make(chan []byte),
		done:     make(chan struct{}),
	}
}

// Handler returns the http.Handler accepting websocket clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) serve(conn *websocket.Conn) {
	h.lock.Lock()
	select {
	case <-h.done:
		h.lock.Unlock()
		conn.Close()
		return
	default:
	}
	h.clients[conn] = struct{}{}
	h.lock.Unlock()
	glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)

	defer h.remove(conn)
	for {
		var pkt []byte
		if err := websocket.Message.Receive(conn, &pkt); err != nil {
			if err != io.EOF {
				glog.V(2).Infof("websocket client %s: %v", conn.Request().RemoteAddr, err)
			}
			return
		}
		select {
		case h.packetCh <- pkt:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	delete(h.clients, conn)
	h.lock.Unlock()
	conn.Close()
}

// ReadPacket implements PacketReader.
func (h *Hub) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-h.packetCh:
		return pkt, nil
	case <-h.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter. Clients failed to receive
// are disconnected.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.lock.Unlock()
	for _, conn := range conns {
		if err := websocket.Message.Send(conn, pkt); err != nil {
			glog.Warningf("websocket client %s: %v", conn.Request().RemoteAddr, err)
			h.remove(conn)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.once.Do(func() {
		h.lock.Lock()
		close(h.done)
		conns := h.clients
		h.clients = make(map[*websocket.Conn]struct{})
		h.lock.Unlock()
		for conn := range conns {
			conn.Close()
		}
	})
	return nil
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	defer h.Close()
	if h.Listen == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	ln, err := net.Listen("tcp", h.Listen)
	if err != nil {
		return err
	}
	glog.Infof("websocket listening on %s", ln.Addr())
	server := &http.Server{Handler: h.Handler()}
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}
