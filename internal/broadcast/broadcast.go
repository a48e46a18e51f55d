// Package broadcast delivers room snapshots to watchers: websocket clients
// connected to this process, and other processes over NATS.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/schocken/internal/game"
)

// MessageTypeSnapshot tags a room state update.
const MessageTypeSnapshot = "snapshot"

// Envelope is the wire form of every broadcast.
type Envelope struct {
	Type     string         `json:"type"`
	Room     string         `json:"room"`
	Snapshot *game.Snapshot `json:"snapshot"`
}

func marshalSnapshot(key string, snap *game.Snapshot) ([]byte, error) {
	data, err := json.Marshal(Envelope{Type: MessageTypeSnapshot, Room: key, Snapshot: snap})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot for room %s: %w", key, err)
	}
	return data, nil
}

// Publisher is anything snapshots can be published to.
type Publisher interface {
	Publish(ctx context.Context, key string, snap *game.Snapshot) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, key string, snap *game.Snapshot) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
