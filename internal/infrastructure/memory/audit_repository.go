package memory

import (
	"context"
	"sync"

	"lending-engine/internal/domain/audit"
)

// AuditRepository is a pure append-only log.
type AuditRepository struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

var _ audit.Repository = (*AuditRepository)(nil)

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *AuditRepository) List(_ context.Context) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]audit.Entry, 0, len(r.entries))
	// Append order in storage; most-recent-first for display.
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
