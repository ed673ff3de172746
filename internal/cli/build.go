package cli

import (
	"context"
	"errors"
	"time"

	"github.com/factchecker/claimcheck/internal/chain"
	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/database"
	"github.com/factchecker/claimcheck/internal/fetch"
	"github.com/factchecker/claimcheck/internal/llm"
	"github.com/factchecker/claimcheck/internal/search"
	"github.com/factchecker/claimcheck/internal/verify"
	"github.com/rs/zerolog/log"
)

const llmTimeout = 60 * time.Second

// buildChecker wires the reasoning chain, search engines and fetcher.
func buildChecker(ctx context.Context, cfg *config.Config) (*verify.Checker, error) {
	provider, err := llm.TryConstructBackend(ctx, &cfg.LLM, llmTimeout)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Info().Msg("No LLM backend configured, using heuristics")
	case err != nil:
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("LLM backend unavailable, using heuristics")
	default:
		log.Info().Str("backend", provider.Name()).Msg("LLM backend ready")
	}

	searcher, err := search.NewFromConfig(cfg.Search, cfg.HTTP)
	if err != nil {
		return nil, err
	}
	log.Debug().Strs("engines", searcher.Engines()).Int("max_results", searcher.MaxResults()).Msg("Search engines configured")

	return verify.NewChecker(
		chain.New(provider, cfg.Prompts),
		searcher,
		fetch.NewHTTPFetcher(cfg.HTTP),
		// search.max_results only sets the engines' default; each assumption asks for 6.
		verify.Options{MaxParallel: cfg.Pipeline.MaxParallel},
	), nil
}

// openStore opens the history database described by cfg.
func openStore(cfg *config.Config) (database.Store, error) {
	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("Database opened")
	return store, nil
}
