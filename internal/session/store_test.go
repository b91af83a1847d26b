package session

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStoreCreateGetDelete(t *testing.T) {
	st := NewStore(catalog.Default(), time.Minute, logger.Nop())

	s, err := st.Create("lab")
	require.NoError(t, err)
	tool, ok := s.Tool()
	require.True(t, ok)
	assert.Equal(t, "lab", tool.ID)

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	assert.True(t, st.Delete(s.ID()))
	assert.False(t, st.Delete(s.ID()))
	_, err = st.Get(s.ID())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestStoreCreateWithUnknownTool(t *testing.T) {
	st := NewStore(catalog.Default(), time.Minute, logger.Nop())

	s, err := st.Create("nope")
	assert.True(t, errors.Is(err, catalog.ErrToolNotFound))
	require.NotNil(t, s)
	_, ok := s.Tool()
	assert.False(t, ok)
	assert.Equal(t, 1, st.Len())
}

func TestStoreSweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(catalog.Default(), 10*time.Minute, logger.Nop())
	st.now = func() time.Time { return now }

	stale, _ := st.Create("architect")
	now = now.Add(8 * time.Minute)
	fresh, _ := st.Create("architect")

	now = now.Add(5 * time.Minute)
	_, err := st.Get(fresh.ID())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Sweep(now))
	_, err = st.Get(stale.ID())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = st.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestStoreSweepDisabledWithoutTTL(t *testing.T) {
	st := NewStore(catalog.Default(), 0, logger.Nop())
	_, _ = st.Create("architect")
	assert.Zero(t, st.Sweep(time.Now().Add(24*time.Hour)))
}

func TestStoreRunStopsWithContext(t *testing.T) {
	st := NewStore(catalog.Default(), time.Millisecond, logger.Nop())
	_, _ = st.Create("architect")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
