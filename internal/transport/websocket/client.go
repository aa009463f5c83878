package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
)

const writeWait = 10 * time.Second

// ConnectionManager tracks one socket per user. gorilla connections allow
// a single concurrent writer, so every socket carries its own write lock.
type ConnectionManager struct {
	connections map[int64]*websocket.Conn
	usernames   map[int64]string
	writeMu     map[int64]*sync.Mutex
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]*websocket.Conn),
		usernames:   make(map[int64]string),
		writeMu:     make(map[int64]*sync.Mutex),
	}
}

// AddConnection registers conn for the user, closing any older socket.
func (cm *ConnectionManager) AddConnection(userID int64, conn *websocket.Conn, username string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[userID]; exists && oldConn != conn {
		oldConn.Close()
	}

	cm.connections[userID] = conn
	cm.usernames[userID] = username
	cm.writeMu[userID] = &sync.Mutex{}
}

func (cm *ConnectionManager) RemoveConnection(userID int64) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[userID]; exists {
		conn.Close()
		cm.deleteLocked(userID)
	}
}

// RemoveConnectionIfMatching removes the user's socket only if it is still
// conn, so a stale reader cannot close a newer connection.
func (cm *ConnectionManager) RemoveConnectionIfMatching(userID int64, conn *websocket.Conn) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[userID]; exists && currentConn == conn {
		currentConn.Close()
		cm.deleteLocked(userID)
		return true
	}
	return false
}

func (cm *ConnectionManager) deleteLocked(userID int64) {
	delete(cm.connections, userID)
	delete(cm.usernames, userID)
	delete(cm.writeMu, userID)
}

// SendMessage writes a JSON message to the user. Messages to users without
// a socket are dropped.
func (cm *ConnectionManager) SendMessage(userID int64, message domain.ServerMessage) error {
	return cm.writeJSON(userID, message)
}

func (cm *ConnectionManager) SendError(userID int64, message string) error {
	return cm.writeJSON(userID, domain.ErrorMessage{Type: "error", Message: message})
}

func (cm *ConnectionManager) writeJSON(userID int64, v interface{}) error {
	cm.mu.RLock()
	conn, exists := cm.connections[userID]
	mu, muExists := cm.writeMu[userID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// DisconnectUser notifies the user and closes their socket.
func (cm *ConnectionManager) DisconnectUser(userID int64, reason string) {
	_ = cm.SendMessage(userID, domain.ServerMessage{
		Type:    "force_disconnect",
		Message: reason,
	})
	cm.RemoveConnection(userID)
}

func (cm *ConnectionManager) GetUsername(userID int64) (string, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	name, exists := cm.usernames[userID]
	return name, exists
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}
