package activity

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_NeverNegative(t *testing.T) {
	tracker, err := NewTracker(nil, nil)
	require.NoError(t, err)

	tracker.Finished()
	tracker.Finished()
	assert.Equal(t, 0, tracker.Count())

	tracker.Started()
	assert.Equal(t, 1, tracker.Count())
	tracker.Finished()
	tracker.Finished()
	assert.Equal(t, 0, tracker.Count())
	assert.False(t, tracker.Busy())
}

func TestTracker_BusyTransitions(t *testing.T) {
	var changes []bool
	tracker, err := NewTracker(nil, func(busy bool) { changes = append(changes, busy) })
	require.NoError(t, err)

	tracker.Started()
	tracker.Started()
	tracker.Finished()
	tracker.Finished()
	tracker.Finished()

	assert.Equal(t, []bool{true, false}, changes)
}

func TestTracker_TrackIsSingleUse(t *testing.T) {
	tracker, err := NewTracker(nil, nil)
	require.NoError(t, err)

	tracker.Started()
	done := tracker.Track()
	assert.Equal(t, 2, tracker.Count())

	done()
	done()
	assert.Equal(t, 1, tracker.Count())
}

func TestTracker_Concurrent(t *testing.T) {
	reg := prometheus.NewRegistry()
	tracker, err := NewTracker(reg, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := tracker.Track()
			done()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, tracker.Count())
	assert.Equal(t, float64(0), testutil.ToFloat64(tracker.gauge))
}

func TestTracker_GaugeFollowsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	tracker, err := NewTracker(reg, nil)
	require.NoError(t, err)

	tracker.Started()
	tracker.Started()
	assert.Equal(t, float64(2), testutil.ToFloat64(tracker.gauge))

	_, err = NewTracker(reg, nil)
	assert.Error(t, err, "second tracker on the same registry must collide")
}
