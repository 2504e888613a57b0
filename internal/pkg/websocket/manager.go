package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/constants"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// ErrSlowConsumer is returned when a connection cannot keep up with outgoing messages
var ErrSlowConsumer = errors.New("websocket client too slow")

// ErrConnClosed is returned when sending on a closed connection
var ErrConnClosed = errors.New("websocket connection closed")

// Manager manages WebSocket connections and client state
type Manager struct {
	sync.RWMutex
	clients  map[string]*Conn
	cfg      models.JWTConfig
	upgrader websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager(jwtConfig models.JWTConfig) *Manager {
	return &Manager{
		clients: make(map[string]*Conn),
		cfg:     jwtConfig,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection authenticates, upgrades and registers a connection, then runs
// handleClient until it returns. The connection is always closed afterwards.
func (m *Manager) HandleConnection(c echo.Context, handleClient func(*Conn) error) error {
	client, err := m.authenticateClient(c)
	if err != nil {
		return err
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client.ConnID = uuid.NewString()
	conn := newConn(client, ws)
	m.AddClient(conn)
	defer func() {
		m.RemoveClient(conn.ID())
		conn.Close()
	}()

	logger.Info("WebSocket client connected",
		logger.String("user_id", client.UserID),
		logger.String("conn_id", client.ConnID))

	return handleClient(conn)
}

// authenticateClient reads the bearer token from the Authorization header or the
// token query parameter, since browsers cannot set headers on upgrade requests
func (m *Manager) authenticateClient(c echo.Context) (*models.WebSocketClient, error) {
	token := c.QueryParam("token")
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}
		token = parts[1]
	}
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	claims, err := m.validateToken(token)
	if err != nil {
		logger.Warn("Token validation failed",
			logger.Err(err))
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return &models.WebSocketClient{
		UserID:      claims.UserID,
		Role:        claims.Role,
		GroupID:     claims.GroupID,
		DisplayName: claims.Name,
		MSISDN:      claims.MSISDN,
	}, nil
}

// validateToken validates the JWT token and returns the claims
func (m *Manager) validateToken(tokenString string) (*models.WebSocketClaims, error) {
	claims := &models.WebSocketClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AddClient safely adds a connection to the manager
func (m *Manager) AddClient(conn *Conn) {
	m.Lock()
	defer m.Unlock()
	m.clients[conn.ID()] = conn
}

// RemoveClient safely removes a connection from the manager
func (m *Manager) RemoveClient(connID string) {
	m.Lock()
	defer m.Unlock()
	delete(m.clients, connID)
}

// GetClient returns a connection by ID
func (m *Manager) GetClient(connID string) (*Conn, bool) {
	m.RLock()
	defer m.RUnlock()
	conn, exists := m.clients[connID]
	return conn, exists
}

// Count returns the number of registered connections
func (m *Manager) Count() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// NotifyUser sends an event to every connection of a user
func (m *Manager) NotifyUser(userID string, event string, data interface{}) {
	m.RLock()
	var targets []*Conn
	for _, conn := range m.clients {
		if conn.Client.UserID == userID {
			targets = append(targets, conn)
		}
	}
	m.RUnlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].ID() < targets[j].ID() })
	for _, conn := range targets {
		if err := conn.Send(event, data); err != nil {
			logger.Warn("Error sending message to client",
				logger.String("user_id", userID),
				logger.Err(err))
		}
	}
}

// CloseAll closes every registered connection
func (m *Manager) CloseAll() {
	m.Lock()
	conns := make([]*Conn, 0, len(m.clients))
	for _, conn := range m.clients {
		conns = append(conns, conn)
	}
	m.clients = make(map[string]*Conn)
	m.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Conn is an authenticated connection with a dedicated writer goroutine
type Conn struct {
	Client *models.WebSocketClient

	ws        *websocket.Conn
	send      chan models.WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(client *models.WebSocketClient, ws *websocket.Conn) *Conn {
	c := &Conn{
		Client: client,
		ws:     ws,
		send:   make(chan models.WSMessage, sendBuffer),
		done:   make(chan struct{}),
	}

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writePump()
	return c
}

// ID returns the connection identifier
func (c *Conn) ID() string {
	return c.Client.ConnID
}

// Done is closed once the connection is closed
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Send queues an event for delivery. A full buffer closes the connection.
func (c *Conn) Send(event string, data interface{}) error {
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling message data: %w", err)
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- models.WSMessage{Event: event, Data: rawData}:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		logger.Warn("Dropping slow websocket client",
			logger.String("user_id", c.Client.UserID),
			logger.String("conn_id", c.ID()))
		c.Close()
		return ErrSlowConsumer
	}
}

// SendError sends an error event to the client
func (c *Conn) SendError(code string, message string) error {
	return c.Send(constants.EventError, models.WSErrorMessage{
		Code:    code,
		Message: message,
	})
}

// ReadMessage blocks until the next client message arrives
func (c *Conn) ReadMessage() (models.WSMessage, error) {
	var msg models.WSMessage
	if err := c.ws.ReadJSON(&msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
			logger.Warn("Unexpected websocket close",
				logger.String("conn_id", c.ID()),
				logger.Err(err))
		}
		return msg, err
	}
	return msg, nil
}

// Close stops the writer and closes the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				logger.Debug("WebSocket write failed",
					logger.String("conn_id", c.ID()),
					logger.Err(err))
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
