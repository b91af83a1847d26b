package ai

import (
	"context"

	"github.com/cockroachdb/errors"

	"prompt_maker_server/config"
	"prompt_maker_server/internal/logger"
)

// NewRefinerFromConfig builds the Refiner for the configured provider. A
// missing API key is not fatal: the server still renders prompts and every
// refinement fails with ErrMissingCredential.
func NewRefinerFromConfig(ctx context.Context, cfg config.Config, log *logger.Logger) (*Refiner, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.RefineProvider {
	case config.ProviderOpenAI:
		var b *OpenAIBackend
		b, err = NewOpenAIBackend(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err == nil {
			backend = b
		}
	case config.ProviderGemini, "":
		var b *GeminiBackend
		b, err = NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err == nil {
			backend = b
		}
	default:
		return nil, errors.Newf("unknown refinement provider %q", cfg.RefineProvider)
	}

	switch {
	case errors.Is(err, ErrMissingCredential):
		log.Warn("refinement provider has no API key; refine requests will fail", "provider", cfg.RefineProvider)
	case err != nil:
		return nil, err
	}

	return NewRefiner(backend, Options{
		Provider:      cfg.RefineProvider,
		Timeout:       cfg.RefineTimeout,
		RatePerMinute: cfg.RefineRatePerMinute,
		Burst:         cfg.RefineBurst,
		Logger:        log,
	}), nil
}
