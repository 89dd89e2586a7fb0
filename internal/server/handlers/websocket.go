// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

// eventStreamClient relays a space's domain events to one connected
// websocket. The stream is read-mostly: clients receive lifecycle, tool
// and surge events and may only send pings.
type eventStreamClient struct {
	conn          *websocket.Conn
	send          chan []byte
	spaceID       string
	natsConn      *nats.Conn
	subscriptions []*nats.Subscription
}

// EventStreamConfig contains timing configuration for event stream
// connections
type EventStreamConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultEventStreamConfig returns the default event stream configuration
func DefaultEventStreamConfig() EventStreamConfig {
	return EventStreamConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// SpaceEventStreamHandler upgrades the connection and relays the space's
// NATS subjects (lifecycle changes, tool placements, surge marks) to the
// client.
func SpaceEventStreamHandler(natsConn *nats.Conn, eventsTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spaceID := chi.URLParam(r, "id")
		if spaceID == "" {
			http.Error(w, "Missing space ID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		client := &eventStreamClient{
			conn:     conn,
			send:     make(chan []byte, 256),
			spaceID:  spaceID,
			natsConn: natsConn,
		}

		go client.writePump()
		go client.readPump()

		if err := client.subscribe(eventsTopic); err != nil {
			log.Printf("Failed to subscribe to space events: %v", err)
			client.close()
			return
		}

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":     "welcome",
			"space_id": spaceID,
			"time":     time.Now(),
		})
		client.send <- welcome

		log.Printf("Event stream opened for space %s", spaceID)
	}
}

// subscribe attaches the client to the space's event subjects.
func (c *eventStreamClient) subscribe(eventsTopic string) error {
	subjects := []string{
		fmt.Sprintf("%s.%s.lifecycle", eventsTopic, c.spaceID),
		fmt.Sprintf("%s.%s.tools", eventsTopic, c.spaceID),
		fmt.Sprintf("%s.%s.surge", eventsTopic, c.spaceID),
	}

	for _, subject := range subjects {
		sub, err := c.natsConn.Subscribe(subject, func(msg *nats.Msg) {
			c.send <- msg.Data
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		c.subscriptions = append(c.subscriptions, sub)
	}
	return nil
}

// readPump drains the connection; incoming frames beyond pongs are
// ignored.
func (c *eventStreamClient) readPump() {
	config := DefaultEventStreamConfig()

	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump relays queued events to the connection and keeps it alive
// with pings.
func (c *eventStreamClient) writePump() {
	config := DefaultEventStreamConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued events into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down NATS subscriptions and the connection.
func (c *eventStreamClient) close() {
	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = nil
	c.conn.Close()
}
