package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/history"
)

func TestRetentionJobPrune(t *testing.T) {
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Append(context.Background(), "run-1", history.EventRunStarted, history.RunStarted{}, nil))

	window := time.Hour
	job, err := NewRetentionJob(store, time.Hour, func() time.Duration { return window })
	require.NoError(t, err)

	n, err := job.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "recent runs are kept")

	window = 0
	n, err = job.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "zero retention keeps everything")

	window = time.Nanosecond
	time.Sleep(5 * time.Millisecond)
	n, err = job.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, job.Run(ctx))
}
