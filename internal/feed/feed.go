// Package feed streams table events to spectating clients over
// WebSocket. Each client gets the current session view on connect,
// then every choreography event as the scheduler releases it.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertrainer/internal/event"
	"github.com/lox/pokertrainer/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the wire envelope for feed frames.
type Message struct {
	Type  string            `json:"type"`
	Event *event.TableEvent `json:"event,omitempty"`
	State *session.View     `json:"state,omitempty"`
}

// Server broadcasts session activity to WebSocket clients.
type Server struct {
	sess     *session.Session
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// NewServer wires a feed server to a session.
func NewServer(sess *session.Session, logger *log.Logger) *Server {
	return &Server{
		sess:   sess,
		logger: logger.WithPrefix("feed"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: map[*client]bool{},
	}
}

// Handler returns the HTTP mux serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Run serves the feed on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	cancel := s.sess.Subscribe(s.Broadcast)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("feed listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Broadcast fans an event out to every connected client. Slow clients
// are dropped rather than allowed to stall the table.
func (s *Server) Broadcast(ev event.TableEvent) {
	msg := Message{Type: "event", Event: &ev}
	s.mu.Lock()
	for c := range s.conns {
		select {
		case c.send <- msg:
		default:
			delete(s.conns, c)
			close(c.send)
		}
	}
	s.mu.Unlock()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan Message, sendBuffer)}

	view := s.sess.View()
	c.send <- Message{Type: "state", State: &view}

	s.mu.Lock()
	s.conns[c] = true
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", conn.RemoteAddr())

	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer s.drop(c)
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if s.conns[c] {
		delete(s.conns, c)
		close(c.send)
	}
	s.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	for c := range s.conns {
		delete(s.conns, c)
		close(c.send)
		_ = c.conn.Close()
	}
	s.mu.Unlock()
}
