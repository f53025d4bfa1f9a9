package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "codetutor.runs"

// Publisher sends a message on a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Client is a NATS connection used for event publishing.
type Client struct {
	conn *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.Name("codetutor"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS client connected", logfields.URL(conn.ConnectedUrlRedacted()))
	return &Client{conn: conn}, nil
}

// Publish sends data on subject.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Close flushes pending messages and closes the connection.
func (c *Client) Close() {
	if err := c.conn.FlushTimeout(2 * time.Second); err != nil {
		slog.Warn("NATS flush failed", logfields.Error(err))
	}
	c.conn.Close()
}
