package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scrumkit/pokerd/internal/layout"
	"github.com/scrumkit/pokerd/internal/locale"
	"github.com/scrumkit/pokerd/internal/session"
)

// NameStore persists the display name across daemon restarts. A nil store
// keeps the name for the process lifetime only.
type NameStore interface {
	SetDisplayName(name string) error
}

// Manager owns the WebSocket connections of the local presentation clients
// and fans controller snapshots out to them.
type Manager struct {
	controller *session.Controller
	strings    *locale.Strings
	names      NameStore

	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   Config

	broadcastCh chan []byte
	detach      func()
}

// Connection represents one presentation client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *Manager

	limiter *rate.Limiter

	ConnectedAt time.Time
	LastPing    time.Time
}

// Config holds connection and rendering settings for the gateway.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool

	// CommandRate caps how many commands a single client may issue per
	// second; CommandBurst is the allowance for short spikes.
	CommandRate  float64
	CommandBurst int

	// Table geometry used to place seats around the rendered table.
	TableWidth  float64
	TableHeight float64
	SeatSize    float64
	SeatPadding float64

	// ShareBaseURL is the public origin used to build room share links.
	ShareBaseURL string
}

// DefaultConfig returns the gateway defaults for a localhost client.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The gateway binds to loopback; browsers on the same host
			// may connect from any local origin.
			return true
		},
		CommandRate:  10,
		CommandBurst: 20,
		TableWidth:   640,
		TableHeight:  360,
		SeatSize:     64,
		SeatPadding:  8,
		ShareBaseURL: "http://localhost:8080",
	}
}

// NewManager creates a gateway manager bound to a controller. Snapshots
// published by the controller are broadcast to every connected client.
func NewManager(ctrl *session.Controller, strs *locale.Strings, names NameStore, config Config) *Manager {
	m := &Manager{
		controller:  ctrl,
		strings:     strs,
		names:       names,
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan []byte, 256),
	}
	m.detach = ctrl.OnUpdate(func(snap session.Snapshot) {
		m.enqueue(m.encodeSnapshot(snap))
	})
	return m
}

// Start pumps broadcast messages to connections until the context ends.
func (m *Manager) Start(ctx context.Context) {
	log.Info().Msg("gateway started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway shutting down")
			m.detach()
			m.closeAll()
			return
		case message := <-m.broadcastCh:
			m.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket client and
// immediately pushes the current snapshot so the client can render.
func (m *Manager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return err
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     m,
		limiter:     rate.NewLimiter(rate.Limit(m.config.CommandRate), m.config.CommandBurst),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	m.registerConnection(connection)

	// Queue the current snapshot before the pumps start so the client
	// renders immediately.
	connection.Send <- m.encodeSnapshot(m.controller.Snapshot())

	go connection.writePump()
	go connection.readPump()

	// A fresh client usually means the host woke up; nudge a refresh so
	// the first render is not up to a poll interval stale.
	m.controller.Wake()

	log.Info().
		Str("connection_id", connection.ID).
		Msg("WebSocket connection established")
	return nil
}

func (m *Manager) registerConnection(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(m.connections)).
		Msg("connection registered")
}

func (m *Manager) unregisterConnection(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.connections[conn]; exists {
		delete(m.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Msg("connection unregistered")
	}
}

// ConnectionCount returns the number of attached presentation clients.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *Manager) enqueue(message []byte) {
	select {
	case m.broadcastCh <- message:
	default:
		log.Warn().Msg("broadcast channel full, dropping message")
	}
}

func (m *Manager) handleBroadcast(message []byte) {
	m.mu.RLock()
	targets := make([]*Connection, 0, len(m.connections))
	for conn := range m.connections {
		targets = append(targets, conn)
	}
	m.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			m.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.connections {
		delete(m.connections, conn)
		close(conn.Send)
		conn.Conn.Close()
	}
}

// seats places one offset per participant around the configured table.
func (m *Manager) seats(count int) []layout.Offset {
	return layout.Seats(count, m.config.TableWidth, m.config.TableHeight, m.config.SeatSize, m.config.SeatPadding)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.Manager.handleCommand(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
