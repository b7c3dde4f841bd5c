package audit

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one line of the append-only audit trail. Entries are never
// mutated or deleted; the ULID id encodes creation order.
type Entry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Repository is an append-only store. List returns entries most-recent-first.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
}

type ctxKey string

const actorKey ctxKey = "audit_actor"

// WithActor attaches the acting staff member's display name to the context
// so recorded entries can be attributed.
func WithActor(ctx context.Context, name string) context.Context {
	name = strings.TrimSpace(name)
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, name)
}

func actorFromContext(ctx context.Context) string {
	if ctx == nil {
		return "System"
	}
	if v, ok := ctx.Value(actorKey).(string); ok && v != "" {
		return v
	}
	return "System"
}

// NewEntry stamps an entry with a time-ordered ULID and the current time.
func NewEntry(actor, action string) Entry {
	return Entry{
		ID:        ulid.Make().String(),
		Actor:     actor,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}
