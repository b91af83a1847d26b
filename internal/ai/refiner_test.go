package ai

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt_maker_server/internal/ai/prompts"
)

type stubBackend struct {
	text  string
	err   error
	delay time.Duration

	calls       int
	gotText     string
	gotPersona  string
	gotTemp     float32
	hadDeadline bool
}

func (s *stubBackend) Submit(ctx context.Context, text, persona string, temperature float32) (string, error) {
	s.calls++
	s.gotText, s.gotPersona, s.gotTemp = text, persona, temperature
	_, s.hadDeadline = ctx.Deadline()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func TestRefineSuccess(t *testing.T) {
	backend := &stubBackend{text: "B"}
	r := NewRefiner(backend, Options{Provider: "stub", Timeout: time.Second})

	got, err := r.Refine(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "B", got)

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "refine this prompt: A", backend.gotText)
	assert.Equal(t, prompts.RefinePersona, backend.gotPersona)
	assert.Equal(t, float32(0.7), backend.gotTemp)
	assert.True(t, backend.hadDeadline)
}

func TestRefineReturnsResponseVerbatim(t *testing.T) {
	r := NewRefiner(&stubBackend{text: "\n  refined  \n"}, Options{})
	got, err := r.Refine(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "\n  refined  \n", got)
}

func TestRefineFailures(t *testing.T) {
	cases := map[string]struct {
		backend       Backend
		wantTransient bool
		wantIs        error
	}{
		"backend error":      {&stubBackend{err: errors.New("invalid argument")}, false, nil},
		"empty response":     {&stubBackend{text: "   "}, false, ErrEmptyResponse},
		"missing credential": {nil, false, ErrMissingCredential},
		"timeout":            {&stubBackend{text: "late", delay: time.Second}, true, context.DeadlineExceeded},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewRefiner(tc.backend, Options{Provider: "stub", Timeout: 20 * time.Millisecond})

			got, err := r.Refine(context.Background(), "A")
			require.Error(t, err)
			assert.Empty(t, got)

			var refErr *RefinementError
			require.True(t, errors.As(err, &refErr), "want RefinementError, got %T", err)
			assert.Equal(t, "stub", refErr.Provider)
			assert.Equal(t, tc.wantTransient, refErr.Transient)
			if tc.wantIs != nil {
				assert.True(t, errors.Is(err, tc.wantIs))
			}
		})
	}
}

func TestRefineEmptyArtifactMakesNoCall(t *testing.T) {
	backend := &stubBackend{text: "B"}
	r := NewRefiner(backend, Options{})

	_, err := r.Refine(context.Background(), "  \n")
	assert.True(t, errors.Is(err, ErrNothingToRefine))
	assert.Zero(t, backend.calls)
}

func TestRefineRateLimited(t *testing.T) {
	backend := &stubBackend{text: "B"}
	r := NewRefiner(backend, Options{Provider: "stub", RatePerMinute: 1, Burst: 1, Timeout: 50 * time.Millisecond})

	_, err := r.Refine(context.Background(), "A")
	require.NoError(t, err)

	_, err = r.Refine(context.Background(), "A")
	var refErr *RefinementError
	require.True(t, errors.As(err, &refErr))
	assert.True(t, refErr.Transient)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 1, backend.calls)
}
