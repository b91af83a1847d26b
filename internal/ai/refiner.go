package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"prompt_maker_server/internal/ai/prompts"
	"prompt_maker_server/internal/logger"
	"prompt_maker_server/internal/utils"
)

// RefineTemperature is the sampling temperature of every refinement call.
const RefineTemperature float32 = 0.7

var (
	ErrNothingToRefine   = errors.New("no prompt to refine")
	ErrMissingCredential = errors.New("refinement provider credential is not configured")
	ErrEmptyResponse     = errors.New("provider returned no text")
	ErrRateLimited       = errors.New("refinement rate limit reached")
)

// Backend is the generative-content capability refinement relies on.
type Backend interface {
	Submit(ctx context.Context, text, persona string, temperature float32) (string, error)
}

// RefinementError reports a failed refinement. The prompt being refined is
// never modified when one is returned.
type RefinementError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *RefinementError) Error() string {
	return fmt.Sprintf("refinement via %s failed: %v", e.Provider, e.Err)
}

func (e *RefinementError) Unwrap() error { return e.Err }

// Options tune a Refiner. Zero values mean no timeout and no pacing.
type Options struct {
	Provider      string
	Timeout       time.Duration
	RatePerMinute int
	Burst         int
	Logger        *logger.Logger
}

// Refiner sends a generated prompt to a generative-content provider and
// returns the provider's rewrite. Safe for concurrent use; callers are
// responsible for not refining the same prompt twice at once.
type Refiner struct {
	backend  Backend
	provider string
	timeout  time.Duration
	limiter  *rate.Limiter
	log      *logger.Logger
}

// NewRefiner wraps backend. A nil backend yields a Refiner whose every call
// fails with ErrMissingCredential.
func NewRefiner(backend Backend, opts Options) *Refiner {
	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Limit(float64(opts.RatePerMinute) / 60)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	provider := opts.Provider
	if provider == "" {
		provider = "unknown"
	}
	return &Refiner{
		backend:  backend,
		provider: provider,
		timeout:  opts.Timeout,
		limiter:  rate.NewLimiter(limit, burst),
		log:      log,
	}
}

// Provider names the backend in use.
func (r *Refiner) Provider() string { return r.provider }

// Refine makes exactly one provider call for a non-empty artifact and returns
// the response text verbatim. Every failure, including an empty response, is
// a *RefinementError.
func (r *Refiner) Refine(ctx context.Context, artifact string) (string, error) {
	if strings.TrimSpace(artifact) == "" {
		return "", ErrNothingToRefine
	}
	if r.backend == nil {
		return "", r.fail(ErrMissingCredential)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", r.fail(errors.Wrapf(ErrRateLimited, "%v", err))
	}

	userPrompt, persona := prompts.GetRefinePrompt(artifact)
	start := time.Now()
	text, err := r.backend.Submit(ctx, userPrompt, persona, RefineTemperature)
	if err != nil {
		return "", r.fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", r.fail(ErrEmptyResponse)
	}

	r.log.Info("prompt refined",
		"provider", r.provider,
		"input_chars", len(artifact),
		"output_chars", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}

func (r *Refiner) fail(err error) error {
	refErr := &RefinementError{
		Provider:  r.provider,
		Transient: utils.IsTransient(err),
		Err:       err,
	}
	r.log.Warn("refinement failed", "provider", r.provider, "transient", refErr.Transient, "error", err)
	return refErr
}
