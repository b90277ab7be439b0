// Package observer streams simulation frames to websocket clients.
//
// The simulation calls Publish from its own goroutine; each client has a
// bounded queue and frames are dropped for clients that fall behind, so a
// slow browser never stalls a tick.
package observer

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/hexforage/game"
)

const writeTimeout = 5 * time.Second

// Server fans frames out to connected observers.
type Server struct {
	upgrader websocket.Upgrader
	buffer   int

	// LoopbackOnly rejects non-local clients.
	LoopbackOnly bool

	mu      sync.Mutex
	clients map[uint64]chan []byte
	latest  []byte

	nextID  atomic.Uint64
	dropped atomic.Uint64
}

var _ game.Publisher = (*Server)(nil)

// NewServer creates a server that queues up to buffer frames per client.
func NewServer(buffer int) *Server {
	return &Server{
		buffer:  max(1, buffer),
		clients: make(map[uint64]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish encodes f once and queues it for every client.
func (s *Server) Publish(f game.Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		slog.Error("encoding frame", "tick", f.Tick, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, ch := range s.clients {
		select {
		case ch <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped returns the number of frames discarded for slow clients.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// register adds a client queue, primed with the latest frame.
func (s *Server) register() (uint64, chan []byte) {
	id := s.nextID.Add(1)
	ch := make(chan []byte, s.buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil {
		ch <- s.latest
	}
	s.clients[id] = ch
	return id, ch
}

func (s *Server) unregister(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Handler serves /ws (frame stream) and /frame (latest frame as JSON).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/frame", s.FrameHandler())
	return mux
}

// FrameHandler returns the most recent frame, or 204 before the first one.
func (s *Server) FrameHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		s.mu.Lock()
		b := s.latest
		s.mu.Unlock()
		if b == nil {
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(b)
	}
}

// WSHandler upgrades the connection and streams frames until the client leaves.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, frames := s.register()
		defer s.unregister(id)
		slog.Info("observer connected", "id", id, "remote", r.RemoteAddr)

		// Reader: observers only send control frames; any error ends the session.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				slog.Info("observer disconnected", "id", id)
				return
			case b := <-frames:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					slog.Debug("observer write failed", "id", id, "error", err)
					return
				}
			}
		}
	}
}

func (s *Server) allowed(r *http.Request) bool {
	return !s.LoopbackOnly || isLoopbackRemote(r.RemoteAddr)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
