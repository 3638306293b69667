package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/luminacrm/pulse/internal/router"
)

// Entry is one row of the notifications table.
type Entry struct {
	ID         string
	EventType  string
	Payload    []byte
	EventTs    string
	ReceivedAt time.Time
}

// NewEntry builds an archive row from a delivered envelope. Envelopes
// without a server-side id get a locally generated one so the conflict key
// stays usable.
func NewEntry(env router.Envelope) Entry {
	id := env.ID
	if id == "" {
		id = uuid.NewString()
	}

	payload, err := json.Marshal(env.Payload)
	if err != nil {
		payload = []byte("{}")
	}

	return Entry{
		ID:         id,
		EventType:  env.EventType,
		Payload:    payload,
		EventTs:    env.Timestamp,
		ReceivedAt: env.ReceivedAt,
	}
}

// WriterConfig configures the archive writer.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
	}
}

// WriterMetrics contains archive counters.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
