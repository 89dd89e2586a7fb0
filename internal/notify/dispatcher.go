// internal/notify/dispatcher.go

package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"hive/internal/metrics"
)

// Dispatcher publishes notifications and domain events to NATS.
// All sends are fire-and-forget: failures are counted and logged, never
// returned, so callers cannot block on delivery.
type Dispatcher struct {
	conn *nats.Conn
}

// NewDispatcher creates a dispatcher on an established NATS connection.
func NewDispatcher(conn *nats.Conn) *Dispatcher {
	return &Dispatcher{conn: conn}
}

// Notification is the envelope delivered to the notification fan-out.
type Notification struct {
	Recipient string                 `json:"recipient"`
	Kind      string                 `json:"kind"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	SentAt    time.Time              `json:"sent_at"`
}

// NotifyUser sends a notification addressed to a single user.
func (d *Dispatcher) NotifyUser(userID, kind, title, body string, data map[string]interface{}) {
	d.publish(fmt.Sprintf("hive.notify.user.%s", userID), Notification{
		Recipient: userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
		SentAt:    time.Now(),
	})
}

// NotifyAdmins sends a notification to the admin review channel.
func (d *Dispatcher) NotifyAdmins(kind, title, body string, data map[string]interface{}) {
	d.publish("hive.notify.admins", Notification{
		Recipient: "admins",
		Kind:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
		SentAt:    time.Now(),
	})
}

// PublishEvent publishes a domain event on the given subject.
func (d *Dispatcher) PublishEvent(subject string, payload interface{}) {
	d.publish(subject, payload)
}

func (d *Dispatcher) publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.NotifyFailures.Inc()
		log.Printf("notify: error marshaling payload for %s: %v", subject, err)
		return
	}
	if err := d.conn.Publish(subject, data); err != nil {
		metrics.NotifyFailures.Inc()
		log.Printf("notify: error publishing to %s: %v", subject, err)
	}
}
