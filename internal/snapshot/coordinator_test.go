package snapshot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	mu    sync.Mutex
	saves []Envelope
	err   error
}

func (f *fakeSaver) SaveSnapshot(ctx context.Context, profileID string, env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, env)
	return nil
}

func (f *fakeSaver) saved() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Envelope(nil), f.saves...)
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestCoordinatorDebouncesWrites(t *testing.T) {
	mockClock := quartz.NewMock(t)
	saver := &fakeSaver{}
	c := NewCoordinator(mockClock, testLogger(), saver, "p1", DefaultDebounce)

	c.Schedule(Envelope{ZoneIndex: 0})
	c.Schedule(Envelope{ZoneIndex: 1})
	c.Schedule(Envelope{ZoneIndex: 2})
	require.True(t, c.PendingSave())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(DefaultDebounce).MustWait(ctx)

	saves := saver.saved()
	require.Len(t, saves, 1, "only the latest envelope should be written")
	assert.Equal(t, 2, saves[0].ZoneIndex)
	assert.Equal(t, SchemaVersion, saves[0].SchemaVersion)
	assert.False(t, c.PendingSave())
}

func TestCoordinatorScheduleRestartsTimer(t *testing.T) {
	mockClock := quartz.NewMock(t)
	saver := &fakeSaver{}
	c := NewCoordinator(mockClock, testLogger(), saver, "p1", 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.Schedule(Envelope{ZoneIndex: 0})
	mockClock.Advance(150 * time.Millisecond).MustWait(ctx)
	assert.Empty(t, saver.saved())

	c.Schedule(Envelope{ZoneIndex: 1})
	mockClock.Advance(150 * time.Millisecond).MustWait(ctx)
	assert.Empty(t, saver.saved(), "restarted debounce should not have elapsed yet")

	mockClock.Advance(50 * time.Millisecond).MustWait(ctx)
	require.Len(t, saver.saved(), 1)
	assert.Equal(t, 1, saver.saved()[0].ZoneIndex)
}

func TestCoordinatorFlush(t *testing.T) {
	mockClock := quartz.NewMock(t)
	saver := &fakeSaver{}
	c := NewCoordinator(mockClock, testLogger(), saver, "p1", DefaultDebounce)

	c.Schedule(Envelope{ZoneIndex: 3})
	require.NoError(t, c.Flush(context.Background()))
	require.Len(t, saver.saved(), 1)
	assert.Equal(t, 3, saver.saved()[0].ZoneIndex)

	// Nothing pending: flush is a no-op.
	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, saver.saved(), 1)
}

func TestCoordinatorSaveFailureIsSwallowed(t *testing.T) {
	mockClock := quartz.NewMock(t)
	saver := &fakeSaver{err: errors.New("disk full")}
	c := NewCoordinator(mockClock, testLogger(), saver, "p1", DefaultDebounce)

	c.Schedule(Envelope{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(DefaultDebounce).MustWait(ctx)
	assert.False(t, c.PendingSave())
}
