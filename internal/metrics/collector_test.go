package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(OpSearch, 100*time.Millisecond, nil)
	c.Record(OpSearch, 300*time.Millisecond, errors.New("boom"))
	c.Record(OpUpload, 50*time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, OpSearch, snap.Operations[0].Name, "sorted by name")

	search := snap.Op(OpSearch)
	require.NotNil(t, search)
	assert.Equal(t, int64(2), search.Count)
	assert.Equal(t, int64(1), search.Errors)
	assert.Equal(t, int64(400), search.TotalTimeMs)
	assert.Equal(t, 200.0, search.AvgTimeMs)
	assert.Equal(t, int64(100), search.MinTimeMs)
	assert.Equal(t, int64(300), search.MaxTimeMs)
	assert.Equal(t, int64(300), search.LastTimeMs)

	assert.Nil(t, snap.Op(OpHistorySave))
}

func TestCollectorLast(t *testing.T) {
	c := NewCollector()

	_, ok := c.Last(OpSearch)
	assert.False(t, ok)

	c.Record(OpSearch, time.Second, nil)
	c.Record(OpSearch, 2*time.Second, nil)

	d, ok := c.Last(OpSearch)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(OpHistorySave, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Snapshot().Op(OpHistorySave).Count)
}
