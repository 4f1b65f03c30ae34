package services

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn - соединение с собственной блокировкой записи, gorilla не допускает параллельную запись
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

type WSConnManager struct {
	mu    sync.RWMutex
	users map[string][]*wsConn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[string][]*wsConn),
	}
}

func (m *WSConnManager) Add(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], &wsConn{conn: conn})
}

func (m *WSConnManager) Remove(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.users[userID]
	for i, c := range conns {
		if c.conn == conn {
			m.users[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Count - число открытых соединений пользователя
func (m *WSConnManager) Count(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID])
}

func (m *WSConnManager) Send(userID string, message []byte) {
	m.mu.RLock()
	conns := append([]*wsConn(nil), m.users[userID]...)
	m.mu.RUnlock()
	for _, c := range conns {
		_ = c.write(message)
	}
}

var GlobalWSConnManager = NewWSConnManager()
