package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/heatgrid/internal/frame"
	"github.com/banshee-data/heatgrid/internal/monitoring"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// frameMessage is pushed to websocket clients for every published frame.
type frameMessage struct {
	Type  string         `json:"type"`
	Frame frame.Metadata `json:"frame"`
	URL   string         `json:"url"`
}

func newFrameMessage(md frame.Metadata) frameMessage {
	return frameMessage{Type: "frame", Frame: md, URL: "/heatmap/latest"}
}

// wsClient owns one websocket connection. Messages are queued in a single
// slot that always holds the newest frame, and a dedicated writer drains it,
// so a stalled client only delays itself.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	queueMu sync.Mutex
	send    chan frameMessage

	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan frameMessage, 1),
		done: make(chan struct{}),
	}
}

// queue replaces any pending message with msg. It never blocks.
func (c *wsClient) queue(msg frameMessage) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	select {
	case <-c.send:
	default:
	}
	c.send <- msg
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// writeLoop sends queued frames and keep-alive pings until the client closes.
func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(func() error { return c.conn.WriteJSON(msg) }); err != nil {
				monitoring.Logf("[ws] dropping client %s: %v", c.conn.RemoteAddr(), err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(func() error { return c.conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *wsClient) write(fn func() error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return fn()
}

// handleWS upgrades the connection and queues the current frame, if any.
// Later frames arrive through RunPush.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := newWSClient(conn)
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	if im, ok := s.pipe.Store().Fetch(); ok {
		c.queue(newFrameMessage(im.Metadata()))
	}

	go c.writeLoop()
	go func() {
		defer s.removeClient(c)
		// Clients only send control frames; reading drives the pong handler.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// RunPush forwards every frame published to the store to websocket clients
// until ctx is done.
func (s *Server) RunPush(ctx context.Context) {
	id, frames := s.pipe.Store().Subscribe()
	defer s.pipe.Store().Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return
		case im, ok := <-frames:
			if !ok {
				return
			}
			s.broadcast(newFrameMessage(im.Metadata()))
		}
	}
}

// broadcast queues msg for every client without waiting on any of them.
func (s *Server) broadcast(msg frameMessage) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		c.queue(msg)
	}
}

func (s *Server) removeClient(c *wsClient) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.close()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

func (s *Server) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
