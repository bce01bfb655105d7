package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/icodeforyou/entsoe-go/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Feed broadcasts published records to connected websocket clients, one
// JSON message per record. Clients that fall behind miss messages.
type Feed struct {
	logger     *slog.Logger
	broadcast  chan []byte
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
	closeOnce  sync.Once

	mu      sync.Mutex
	clients map[*feedClient]bool
}

type feedClient struct {
	feed *Feed
	conn *ws.Conn
	send chan []byte
	name string
}

func NewFeed() *Feed {
	f := &Feed{
		logger:     slog.Default().With("module", "feed"),
		broadcast:  make(chan []byte),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
		clients:    make(map[*feedClient]bool),
	}
	go f.run()
	return f
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("web socket upgrade failed", slog.Any("error", err))
		return
	}
	c := &feedClient{feed: f, conn: conn, send: make(chan []byte, 256), name: r.RemoteAddr}

	select {
	case f.register <- c:
	case <-f.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (f *Feed) Publish(ctx context.Context, kind types.Kind, area string, records []types.FlatRecord) error {
	for _, r := range records {
		select {
		case <-f.done:
			return fmt.Errorf("feed is closed")
		default:
		}
		msg, err := json.Marshal(line{Kind: kind, Area: area, Record: r})
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		select {
		case f.broadcast <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return fmt.Errorf("feed is closed")
		}
	}
	return nil
}

// Close disconnects every client.
func (f *Feed) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *Feed) run() {
	for {
		select {
		case c := <-f.register:
			f.logger.Debug("registering client", "clientName", c.name)
			f.mu.Lock()
			f.clients[c] = true
			f.mu.Unlock()

		case c := <-f.unregister:
			f.logger.Debug("unregistering client", "clientName", c.name)
			f.mu.Lock()
			if _, ok := f.clients[c]; ok {
				delete(f.clients, c)
				close(c.send)
			}
			f.mu.Unlock()

		case msg := <-f.broadcast:
			f.mu.Lock()
			for c := range f.clients {
				select {
				case c.send <- msg:
				default:
					f.logger.Warn("client send buffer full, dropping message", "clientName", c.name)
				}
			}
			f.mu.Unlock()

		case <-f.done:
			f.mu.Lock()
			for c := range f.clients {
				delete(f.clients, c)
				close(c.send)
			}
			f.mu.Unlock()
			return
		}
	}
}

func (c *feedClient) leave() {
	select {
	case c.feed.unregister <- c:
	case <-c.feed.done:
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.leave()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, msg); err != nil {
				c.feed.logger.Warn("web socket write failed", slog.String("client", c.name), slog.Any("error", err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only handles control frames, clients have nothing to say.
func (c *feedClient) readPump() {
	defer c.leave()
	c.conn.SetReadLimit(512)
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
