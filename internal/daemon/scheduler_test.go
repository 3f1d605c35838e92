package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleRefresh(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	var runs atomic.Int32
	id, err := s.ScheduleRefresh(20*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start(context.Background())

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond,
		"scheduled task should run repeatedly")
}

func TestScheduler_RejectsZeroInterval(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err = s.ScheduleRefresh(0, func() {})
	require.Error(t, err)
}
