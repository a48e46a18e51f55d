package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/lox/schocken/internal/game"
)

// DefaultSubjectPrefix is prepended to the room key to form the subject.
const DefaultSubjectPrefix = "schocken.room."

// originHeader names the process that published a broadcast.
const originHeader = "Schocken-Origin"

// NATSOptions configures the NATS connection.
type NATSOptions struct {
	URL    string
	Token  string
	Prefix string
}

// NATS publishes snapshots to a subject per room, so several server
// processes can share watchers. Each process delivers to its own hub
// directly and relays only broadcasts published elsewhere.
type NATS struct {
	conn   *nats.Conn
	prefix string
	origin string
	logger *log.Logger
}

// ConnectNATS dials the server named in opts.
func ConnectNATS(opts NATSOptions, logger *log.Logger) (*NATS, error) {
	url := opts.URL
	if url == "" {
		url = nats.DefaultURL
	}
	natsOpts := []nats.Option{nats.Name("schocken")}
	if opts.Token != "" {
		natsOpts = append(natsOpts, nats.Token(opts.Token))
	}

	conn, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return NewNATS(conn, opts.Prefix, logger), nil
}

// NewNATS wraps an established connection.
func NewNATS(conn *nats.Conn, prefix string, logger *log.Logger) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{conn: conn, prefix: prefix, origin: uuid.NewString(), logger: logger.WithPrefix("nats")}
}

func (n *NATS) Publish(_ context.Context, key string, snap *game.Snapshot) error {
	data, err := marshalSnapshot(key, snap)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(n.prefix + key)
	msg.Header.Set(originHeader, n.origin)
	msg.Data = data
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish room %s: %w", key, err)
	}
	return nil
}

func (n *NATS) fromSelf(msg *nats.Msg) bool {
	return msg.Header.Get(originHeader) == n.origin
}

// Relay forwards room broadcasts published by other processes to the local
// hub until ctx is done.
func (n *NATS) Relay(ctx context.Context, hub *Hub) error {
	sub, err := n.conn.Subscribe(n.prefix+"*", func(msg *nats.Msg) {
		if n.fromSelf(msg) {
			return
		}
		key := strings.TrimPrefix(msg.Subject, n.prefix)
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil || env.Type != MessageTypeSnapshot {
			n.logger.Warn("Dropping malformed broadcast", "subject", msg.Subject, "error", err)
			return
		}
		hub.deliver(key, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	n.logger.Info("Relaying room broadcasts", "subject", n.prefix+"*")

	<-ctx.Done()
	return sub.Unsubscribe()
}

// Close drains the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
