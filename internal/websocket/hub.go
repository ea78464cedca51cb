package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"foodway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers on the web app origin and native clients both connect
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authenticator resolves the access token passed on the upgrade request.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*service.Actor, error)
}

// Event is the frame sent to subscribers.
type Event struct {
	Event        string    `json:"event"`
	RestaurantID uint      `json:"restaurant_id"`
	Data         any       `json:"data"`
	Timestamp    time.Time `json:"timestamp"`
}

type message struct {
	restaurantID uint
	payload      []byte
}

// Client represents a single connected WebSocket client. A nil restaurant
// subscribes to every restaurant.
type Client struct {
	Hub          *Hub
	Conn         *websocket.Conn
	Send         chan []byte
	UserID       uint
	RestaurantID *uint
}

func (c *Client) subscribed(restaurantID uint) bool {
	return c.RestaurantID == nil || *c.RestaurantID == restaurantID
}

// Hub keeps the connected clients and fans order events out to the clients
// subscribed to the event's restaurant.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run dispatches hub events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.WithField("user_id", client.UserID).Info("WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.WithField("user_id", client.UserID).Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.subscribed(msg.restaurantID) {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for the subscribers of restaurantID. It never blocks
// the caller; events are dropped when the queue is full.
func (h *Hub) Publish(restaurantID uint, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, RestaurantID: restaurantID, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Warn("failed to encode websocket event")
		return
	}
	select {
	case h.broadcast <- message{restaurantID: restaurantID, payload: payload}:
	default:
		h.log.WithField("event", event).Warn("websocket queue full, event dropped")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

// writePump sends one frame per event and pings the peer so dead connections
// are noticed by readPump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains the connection; clients never send commands. A missing
// pong within pongWait ends the connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).WithField("user_id", c.UserID).Warn("websocket read failed")
			}
			return
		}
	}
}

// ServeWs upgrades GET /ws?token=<access token>. Restaurant users receive the
// events of their restaurant; super admins receive every event.
func ServeWs(hub *Hub, authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			hub.log.Info("WebSocket connection rejected: missing token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		actor, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			hub.log.WithError(err).Info("WebSocket connection rejected: invalid token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !actor.IsSuperAdmin() && actor.RestaurantID == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.WithError(err).Warn("WebSocket upgrade failed")
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: actor.UserID}
		if !actor.IsSuperAdmin() {
			client.RestaurantID = actor.RestaurantID
		}
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
