package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamlink/metric"
)

func newTestRing(t *testing.T, capacity int, options ...Option[int]) Buffer[int] {
	t.Helper()
	b, err := NewRing(capacity, options...)
	require.NoError(t, err)
	return b
}

func TestRing_FIFOOrder(t *testing.T) {
	b := newTestRing(t, 10)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Write(i))
	}
	assert.Equal(t, 5, b.Size())

	for i := 0; i < 5; i++ {
		got, ok := b.Read()
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.True(t, b.IsEmpty())
}

func TestRing_ReadEmpty(t *testing.T) {
	b := newTestRing(t, 4)

	_, ok := b.Read()
	assert.False(t, ok)
	_, ok = b.Peek()
	assert.False(t, ok)
}

func TestRing_DropOldestKeepsMostRecent(t *testing.T) {
	var dropped []int
	b := newTestRing(t, 3,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)

	for i := 0; i < 6; i++ {
		require.NoError(t, b.Write(i))
	}

	assert.Equal(t, []int{3, 4, 5}, b.Snapshot())
	assert.Equal(t, []int{0, 1, 2}, dropped)
	assert.Equal(t, int64(3), b.Stats().Drops())
}

func TestRing_DropNewestRejectsIncoming(t *testing.T) {
	var dropped []int
	b := newTestRing(t, 2,
		WithOverflowPolicy[int](DropNewest),
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Write(i))
	}

	assert.Equal(t, []int{0, 1}, b.Snapshot())
	assert.Equal(t, []int{2, 3}, dropped)
}

func TestRing_UnboundedUntilCapacitySet(t *testing.T) {
	b := newTestRing(t, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Write(i))
	}
	assert.Equal(t, 100, b.Size())
	assert.Equal(t, 0, b.Capacity())
}

func TestRing_SetCapacityEvictsOldest(t *testing.T) {
	var dropped []int
	b := newTestRing(t, 0,
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)

	for i := 0; i < 8; i++ {
		require.NoError(t, b.Write(i))
	}

	b.SetCapacity(3)
	assert.Equal(t, []int{5, 6, 7}, b.Snapshot())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, dropped)
	assert.Equal(t, 3, b.Capacity())
}

func TestRing_DrainAndBatch(t *testing.T) {
	b := newTestRing(t, 10)
	for i := 0; i < 6; i++ {
		require.NoError(t, b.Write(i))
	}

	batch := b.ReadBatch(4)
	assert.Equal(t, []int{0, 1, 2, 3}, batch)

	rest := b.Drain()
	assert.Equal(t, []int{4, 5}, rest)
	assert.True(t, b.IsEmpty())
	assert.Nil(t, b.Drain())
}

func TestRing_SnapshotDoesNotConsume(t *testing.T) {
	b := newTestRing(t, 4)
	require.NoError(t, b.Write(1))
	require.NoError(t, b.Write(2))

	assert.Equal(t, []int{1, 2}, b.Snapshot())
	assert.Equal(t, 2, b.Size())
}

func TestRing_CloseStopsWrites(t *testing.T) {
	b := newTestRing(t, 4)
	require.NoError(t, b.Write(1))
	require.NoError(t, b.Close())

	assert.Error(t, b.Write(2))

	// Buffered items remain readable after close
	got, ok := b.Read()
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestRing_StatsTrackActivity(t *testing.T) {
	b := newTestRing(t, 2)

	require.NoError(t, b.Write(1))
	require.NoError(t, b.Write(2))
	require.NoError(t, b.Write(3))
	b.Read()
	b.Peek()

	stats := b.Stats()
	assert.Equal(t, int64(3), stats.Writes())
	assert.Equal(t, int64(1), stats.Reads())
	assert.Equal(t, int64(1), stats.Peeks())
	assert.Equal(t, int64(1), stats.Overflows())
	assert.Equal(t, int64(2), stats.MaxSize())
	assert.Equal(t, int64(1), stats.CurrentSize())
	assert.GreaterOrEqual(t, stats.Uptime().Nanoseconds(), int64(0))
}

func TestRing_ConcurrentWriters(t *testing.T) {
	b := newTestRing(t, 0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, b.Write(i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, b.Size())
	assert.Equal(t, int64(800), b.Stats().Writes())
}

func TestRing_MetricsRegistration(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	b, err := NewRing(2, WithMetrics[int](registry, "test_queue"))
	require.NoError(t, err)

	require.NoError(t, b.Write(1))
	require.NoError(t, b.Write(2))
	require.NoError(t, b.Write(3))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["streamlink_buffer_writes_total"])
	assert.True(t, names["streamlink_buffer_drops_total"])
	assert.True(t, names["streamlink_buffer_size"])

	// Same prefix registers the same metric names again
	_, err = NewRing(2, WithMetrics[int](registry, "test_queue"))
	assert.Error(t, err)
}