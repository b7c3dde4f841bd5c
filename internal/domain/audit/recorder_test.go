package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/infrastructure/memory"
)

func newRecorder(t *testing.T) (*audit.Recorder, *memory.AuditRepository) {
	t.Helper()
	repo := memory.NewAuditRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(repo, logger)
	t.Cleanup(recorder.Close)
	return recorder, repo
}

func TestRecorder_RecordAndList(t *testing.T) {
	ctx := context.Background()
	recorder, _ := newRecorder(t)

	recorder.Record(ctx, "Approved loan %s", "loan-1")
	recorder.Record(audit.WithActor(ctx, "Ana Reyes"), "Recorded payment of %s", "400.00")
	recorder.Close() // drain before asserting

	entries, err := recorder.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "Recorded payment of 400.00", entries[0].Action)
	assert.Equal(t, "Ana Reyes", entries[0].Actor)
	assert.Equal(t, "Approved loan loan-1", entries[1].Action)
	assert.Equal(t, "System", entries[1].Actor, "entries without an actor fall back to System")
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	recorder, _ := newRecorder(t)
	recorder.Record(context.Background(), "something happened")
	recorder.Close()
	recorder.Close()
}

// A stuck store must never block callers: Record drops entries once the
// buffer is full instead of stalling the mutation that triggered it.
func TestRecorder_FullBufferNeverBlocks(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	repo := &blockingAuditRepo{release: release}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(repo, logger)

	// Well past the buffer capacity; each call must return immediately.
	for i := 0; i < 1000; i++ {
		recorder.Record(ctx, "entry %d", i)
	}

	close(release)
	recorder.Close()

	// The consumer was stuck for the whole burst, so most of it was dropped.
	assert.Less(t, repo.count(), 1000)
	assert.Greater(t, repo.count(), 0)
}

type blockingAuditRepo struct {
	inner   memory.AuditRepository
	release chan struct{}
}

func (r *blockingAuditRepo) Append(ctx context.Context, entry audit.Entry) error {
	<-r.release
	return r.inner.Append(ctx, entry)
}

func (r *blockingAuditRepo) List(ctx context.Context) ([]audit.Entry, error) {
	return r.inner.List(ctx)
}

func (r *blockingAuditRepo) count() int {
	entries, _ := r.inner.List(context.Background())
	return len(entries)
}
