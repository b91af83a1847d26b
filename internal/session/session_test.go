package session

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt_maker_server/internal/ai"
	"prompt_maker_server/internal/answers"
	"prompt_maker_server/internal/catalog"
)

type fakeRefiner struct {
	text string
	err  error

	// started/release let a test hold a refinement open.
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *fakeRefiner) Refine(ctx context.Context, artifact string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, artifact)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.text, f.err
}

func newArchitectSession(t *testing.T) *Session {
	t.Helper()
	s := New("s1", catalog.Default())
	require.NoError(t, s.Activate("architect"))
	return s
}

func fillArchitect(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetValues(map[string]string{
		"goal":        "ship it",
		"audience":    "devs",
		"tone":        "calm tone",
		"constraints": "short",
	}))
}

func generated(t *testing.T) *Session {
	t.Helper()
	s := newArchitectSession(t)
	fillArchitect(t, s)
	_, err := s.Generate()
	require.NoError(t, err)
	return s
}

func TestNewSessionIsEmpty(t *testing.T) {
	s := New("s1", catalog.Default())
	_, hasTool := s.Tool()
	assert.False(t, hasTool)
	assert.Equal(t, StateEmpty, s.State())
	_, ok := s.Artifact()
	assert.False(t, ok)
}

func TestActivateUnknownToolClearsActiveTool(t *testing.T) {
	s := newArchitectSession(t)

	err := s.Activate("faq")
	assert.True(t, errors.Is(err, catalog.ErrToolNotFound))
	_, hasTool := s.Tool()
	assert.False(t, hasTool)
	assert.True(t, errors.Is(s.SetValue("goal", "x"), answers.ErrNoActiveTool))
}

func TestGenerateRequiresCompleteAnswers(t *testing.T) {
	s := newArchitectSession(t)
	require.NoError(t, s.SetValue("goal", "ship it"))

	_, err := s.Generate()
	assert.True(t, errors.Is(err, ErrIncomplete))
	assert.Equal(t, []string{"audience", "tone", "constraints"}, s.Missing())
	assert.Equal(t, StateEmpty, s.State())
}

func TestGenerateWithoutTool(t *testing.T) {
	s := New("s1", catalog.Default())
	_, err := s.Generate()
	assert.True(t, errors.Is(err, answers.ErrNoActiveTool))
}

func TestGenerateStoresArtifact(t *testing.T) {
	s := generated(t)

	text, ok := s.Artifact()
	require.True(t, ok)
	assert.Contains(t, text, "Your primary objective is to: ship it")
	assert.Equal(t, StateGenerated, s.State())

	again, err := s.Generate()
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestSetValuesIsAllOrNothing(t *testing.T) {
	s := newArchitectSession(t)
	err := s.SetValues(map[string]string{"goal": "x", "niche": "y"})
	assert.True(t, errors.Is(err, answers.ErrFieldNotDeclared))
	assert.Equal(t, "", s.Values()["goal"])
}

func TestToolSwitchDoesNotLeakAnswers(t *testing.T) {
	s := newArchitectSession(t)
	fillArchitect(t, s)

	require.NoError(t, s.Activate("lab"))
	require.NoError(t, s.Activate("architect"))

	for id, v := range s.Values() {
		assert.Equal(t, "", v, id)
	}
	assert.False(t, s.IsComplete())
}

func TestToolSwitchKeepsArtifact(t *testing.T) {
	s := generated(t)
	before, _ := s.Artifact()

	require.NoError(t, s.Activate("web"))
	after, ok := s.Artifact()
	assert.True(t, ok)
	assert.Equal(t, before, after)
}

func TestRefineSuccessReplacesArtifact(t *testing.T) {
	s := generated(t)
	original, _ := s.Artifact()
	r := &fakeRefiner{text: "B"}

	got, err := s.Refine(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "B", got)

	text, _ := s.Artifact()
	assert.Equal(t, "B", text)
	assert.Equal(t, StateGenerated, s.State())
	assert.Equal(t, []string{original}, r.calls)
}

func TestRefineFailureKeepsArtifact(t *testing.T) {
	s := generated(t)
	original, _ := s.Artifact()
	refErr := &ai.RefinementError{Provider: "stub", Err: ai.ErrEmptyResponse}

	got, err := s.Refine(context.Background(), &fakeRefiner{err: refErr})

	var target *ai.RefinementError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, original, got)
	text, _ := s.Artifact()
	assert.Equal(t, original, text)
	assert.Equal(t, StateGenerated, s.State())
}

func TestRefineWithoutArtifactIsNoop(t *testing.T) {
	s := newArchitectSession(t)
	r := &fakeRefiner{text: "invented"}

	_, err := s.Refine(context.Background(), r)
	assert.True(t, errors.Is(err, ErrNoArtifact))
	assert.Empty(t, r.calls)
	_, ok := s.Artifact()
	assert.False(t, ok)
}

func TestRefineInFlightBlocksOtherTransitions(t *testing.T) {
	s := generated(t)
	r := &fakeRefiner{text: "B", started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Refine(context.Background(), r)
		done <- err
	}()
	<-r.started

	assert.Equal(t, StateRefining, s.State())
	_, err := s.Refine(context.Background(), &fakeRefiner{text: "C"})
	assert.True(t, errors.Is(err, ErrRefineInFlight))
	assert.True(t, errors.Is(s.Dismiss(), ErrRefineInFlight))
	_, err = s.Generate()
	assert.True(t, errors.Is(err, ErrRefineInFlight))

	close(r.release)
	require.NoError(t, <-done)
	text, _ := s.Artifact()
	assert.Equal(t, "B", text)
}

func TestDismissClearsArtifact(t *testing.T) {
	s := generated(t)
	require.NoError(t, s.Dismiss())

	_, ok := s.Artifact()
	assert.False(t, ok)
	assert.Equal(t, StateEmpty, s.State())
	require.NoError(t, s.Dismiss())
}

func TestSnapshot(t *testing.T) {
	s := generated(t)
	snap := s.Snapshot()

	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, "architect", snap.ToolID)
	assert.True(t, snap.HasTool)
	assert.True(t, snap.Complete)
	assert.Empty(t, snap.Missing)
	assert.True(t, snap.HasArtifact)
	assert.Equal(t, StateGenerated, snap.State)
	assert.Equal(t, "ship it", snap.Values["goal"])
}
