package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"TemplePlayer/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// websocket 消息类型
const (
	MsgTypeState         = "state"
	MsgTypeError         = "error"
	MsgTypeAuth          = "auth"
	MsgTypeProviderError = "providerError"
)

const (
	sendBuffer   = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Message is one websocket frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 一个 websocket 连接
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub fans messages out to connected clients. A client whose send buffer is
// full is dropped instead of blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a connection under a fresh id. It returns nil if the hub is closed.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.add(c) {
		return nil
	}
	logger.Info("[Hub] client connected", logger.String("client", c.ID))
	return c
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.ID] = c
	return true
}

// Unregister removes the client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.ID] == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := encode(msg)
	if err != nil {
		logger.Error("[Hub] encode message failed", logger.String("type", msg.Type), logger.ErrorField(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("[Hub] dropping slow client", logger.String("client", c.ID))
		h.Unregister(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

func encode(msg Message) ([]byte, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(msg)
}

// sendDirect queues msg for this client only.
func (c *Client) sendDirect(msg Message) {
	data, err := encode(msg)
	if err != nil {
		return
	}
	// only registered clients have an open send channel
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c.ID] != c {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump 读取循环. Clients only send control frames; the loop keeps the read
// deadline alive and notices disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Hub] websocket read error", logger.String("client", c.ID), logger.ErrorField(err))
			}
			logger.Info("[Hub] client disconnected", logger.String("client", c.ID))
			return
		}
	}
}

// writePump 写入循环. Every message is its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket upgrades the connection and sends the current state first.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Hub] websocket upgrade failed", logger.ErrorField(err))
		return
	}

	c := s.hub.Register(conn)
	if c == nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	c.sendDirect(Message{Type: MsgTypeState, Data: s.player.State()})

	go c.writePump()
	go c.readPump()
}
