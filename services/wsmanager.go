package services

import (
	"sync"
	"time"

	"network/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsSendBuffer = 32
)

// wsClient is one socket with its outgoing queue. Only its write pump
// writes to conn.
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *wsClient) stop() {
	c.closeOnce.Do(func() { close(c.send) })
}

// WSConnManager tracks open notification sockets per user. A user may
// have several tabs open. Send only queues; a socket that falls behind
// or fails a write is dropped.
type WSConnManager struct {
	mu        sync.Mutex
	users     map[int64][]*wsClient
	writeWait time.Duration
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users:     make(map[int64][]*wsClient),
		writeWait: wsWriteWait,
	}
}

func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) {
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	m.mu.Lock()
	m.users[userID] = append(m.users[userID], c)
	m.mu.Unlock()

	go m.writePump(userID, c)
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.users[userID] {
		if c.conn == conn {
			m.removeLocked(userID, c)
			return
		}
	}
}

func (m *WSConnManager) removeLocked(userID int64, target *wsClient) {
	clients := m.users[userID]
	for i, c := range clients {
		if c == target {
			m.users[userID] = append(clients[:i:i], clients[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
	target.stop()
}

// Send queues message for every socket of userID and returns how many
// accepted it. It never blocks on the network.
func (m *WSConnManager) Send(userID int64, message []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients := append([]*wsClient(nil), m.users[userID]...)
	sent := 0
	for _, c := range clients {
		select {
		case c.send <- message:
			sent++
		default:
			logger.L.Warn("notification socket too slow, dropping it", zap.Int64("user_id", userID))
			m.removeLocked(userID, c)
			_ = c.conn.Close()
		}
	}
	return sent
}

func (m *WSConnManager) Connections(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users[userID])
}

func (m *WSConnManager) writePump(userID int64, c *wsClient) {
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(m.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.L.Debug("notification write failed", zap.Int64("user_id", userID), zap.Error(err))
			m.mu.Lock()
			m.removeLocked(userID, c)
			m.mu.Unlock()
			// unblocks the reader in the owning handler
			_ = c.conn.Close()
			return
		}
	}
}
