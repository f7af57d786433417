package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Topic names. The broker multiplexes every notification category over
// one endpoint; per-user topics are scoped by user id.
func RemindersTopic(userID string) string     { return "/topic/reminders/" + userID }
func NotificationsTopic(userID string) string { return "/topic/notifications/" + userID }
func RoutineTopic(userID string) string       { return "/routine/" + userID }

const AlertsTopic = "/topic/alerts"

// Frame is the broker wire format: a frame type, the topic it belongs
// to and the raw payload. Payloads are decoded by the subscriber that
// owns the topic.
type Frame struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Handler receives the raw payload of each message published on a
// subscribed topic. Handlers must not block; hand off to a channel or
// register state and return.
type Handler func(body []byte)

// Client maintains the persistent server-push channel. Connect is
// idempotent; a lost connection is redialed after a fixed delay until
// Disconnect is called.
type Client struct {
	url              string
	handshakeTimeout time.Duration
	reconnectDelay   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	handlers  map[string][]Handler
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewClient(url string, handshakeTimeout, reconnectDelay time.Duration) *Client {
	return &Client{
		url:              url,
		handshakeTimeout: handshakeTimeout,
		reconnectDelay:   reconnectDelay,
		handlers:         map[string][]Handler{},
	}
}

// Subscribe registers a handler for a topic. Must be called before
// Connect; subscriptions are replayed to the broker on every redial.
func (c *Client) Subscribe(topic string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = append(c.handlers[topic], h)
}

// Connect opens the channel and keeps it alive in the background.
// Calling it while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.connected = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx)
}

// Disconnect tears the channel down. Safe to call even if Connect was
// never called, or more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	cancel := c.cancel
	done := c.done
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	cancel()
	<-done
	log.Println("🔌 Live channel disconnected")
}

// Connected reports whether the background loop is running. The socket
// itself may be mid-redial.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.dialAndServe(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️  Live channel error: %v (retrying in %v)", err, c.reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) dialAndServe(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}()

	for _, topic := range topics {
		if err := conn.WriteJSON(Frame{Type: "subscribe", Topic: topic}); err != nil {
			return fmt.Errorf("subscribe to %s failed: %w", topic, err)
		}
	}

	log.Printf("✅ Live channel connected (%d topic(s))", len(topics))

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		if frame.Type != "message" || frame.Topic == "" {
			continue
		}

		c.dispatch(frame.Topic, frame.Body)
	}
}

func (c *Client) dispatch(topic string, body []byte) {
	c.mu.Lock()
	handlers := c.handlers[topic]
	c.mu.Unlock()

	for _, h := range handlers {
		h(body)
	}
}
