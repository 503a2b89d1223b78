package cron

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
)

type recordingSyncer struct {
	provider string
	mu       sync.Mutex
	calls    [][]string
}

func (r *recordingSyncer) Provider() string { return r.provider }

func (r *recordingSyncer) SyncFromDocuments(_ context.Context, paths []string) (*billing.SyncSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
	return billing.NewSyncSummary(len(paths)), nil
}

func TestScheduler_RunNow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old", "b.pdf"), []byte("%PDF"), 0o644))

	electric := &recordingSyncer{provider: "electric"}
	water := &recordingSyncer{provider: "water"}
	s := NewScheduler("0 3 * * *", []Job{
		{Syncer: electric, Dir: dir, Recursive: true},
		{Syncer: water, Dir: ""},
	}, logger.Discard())
	assert.Equal(t, 1, s.Jobs(), "jobs without a directory are dropped")

	require.NoError(t, s.Start())
	s.RunNow()
	s.Stop()

	require.Len(t, electric.calls, 1)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "old", "b.pdf")}, electric.calls[0])
	assert.Empty(t, water.calls)
}

func TestScheduler_EmptyDirectorySkipsSync(t *testing.T) {
	electric := &recordingSyncer{provider: "electric"}
	s := NewScheduler("@daily", []Job{{Syncer: electric, Dir: t.TempDir()}}, logger.Discard())

	s.run(s.jobs[0])
	assert.Empty(t, electric.calls)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", []Job{{Syncer: &recordingSyncer{}, Dir: t.TempDir()}}, logger.Discard())
	assert.Error(t, s.Start())

	assert.Error(t, NewScheduler("", nil, logger.Discard()).Start())
}
