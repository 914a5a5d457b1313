package consumer

import (
	"context"
	"encoding/json"
)

// DebeziumSource identifies the table a change came from.
type DebeziumSource struct {
	Table string `json:"table"`
}

// DebeziumPayload is the payload field of a Debezium CDC message. Before and
// After hold a row of the table named in Source.
type DebeziumPayload struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
	Source DebeziumSource  `json:"source"`
	Op     string          `json:"op"` // "c"=create, "u"=update, "d"=delete, "r"=snapshot
	TsMs   int64           `json:"ts_ms"`
}

// DebeziumMessage is the top-level Debezium CDC message envelope.
type DebeziumMessage struct {
	Payload DebeziumPayload `json:"payload"`
}

// DiaryRecord is a row of the diaries table.
type DiaryRecord struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	AuthorID   string  `json:"author_id"`
	Visibility string  `json:"visibility"`
	CreatedAt  *string `json:"created_at"`
	DeletedAt  *string `json:"deleted_at"` // nil = active, non-nil = soft-deleted
}

// ProfileRecord is a row of the profiles table.
type ProfileRecord struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CDCEventHandler processes a decoded Debezium CDC message.
type CDCEventHandler interface {
	HandleCDCEvent(ctx context.Context, event *DebeziumMessage) error
}

// CDCEventConsumer manages the Kafka consumer lifecycle.
type CDCEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
