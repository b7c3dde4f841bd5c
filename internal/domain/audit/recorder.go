package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lending-engine/internal/infrastructure/monitoring"
)

const defaultBuffer = 256

// Recorder appends audit entries asynchronously. Recording is best-effort:
// a full buffer drops the entry with a warning instead of blocking, so an
// audit hiccup can never fail a financial mutation.
type Recorder struct {
	repo    Repository
	logger  *slog.Logger
	entries chan Entry
	done    chan struct{}
	once    sync.Once
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	r := &Recorder{
		repo:    repo,
		logger:  logger.With("component", "AuditRecorder"),
		entries: make(chan Entry, defaultBuffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	for entry := range r.entries {
		if err := r.repo.Append(context.Background(), entry); err != nil {
			r.logger.Warn("Failed to append audit entry", "entry_id", entry.ID, "error", err)
			continue
		}
		monitoring.Business.AuditEntriesTotal.Inc()
	}
	close(r.done)
}

// Record enqueues an audit entry attributed to the actor on the context.
func (r *Recorder) Record(ctx context.Context, format string, args ...any) {
	entry := NewEntry(actorFromContext(ctx), fmt.Sprintf(format, args...))
	select {
	case r.entries <- entry:
	default:
		monitoring.Business.AuditDroppedTotal.Inc()
		r.logger.Warn("Audit buffer full, dropping entry", "action", entry.Action)
	}
}

// List returns the trail most-recent-first.
func (r *Recorder) List(ctx context.Context) ([]Entry, error) {
	return r.repo.List(ctx)
}

// Close drains pending entries. Safe to call more than once.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.entries)
		<-r.done
	})
}
