// Package verify runs the fact-checking pipeline for a single claim.
package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/factchecker/claimcheck/internal/chain"
	"github.com/factchecker/claimcheck/internal/credibility"
	"github.com/factchecker/claimcheck/internal/fetch"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/factchecker/claimcheck/internal/search"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	assumptionSearchLimit = 6
	defaultMaxParallel    = 4
)

// Options tune the pipeline.
type Options struct {
	MaxResults  int // search hits requested per assumption, 6 when zero
	MaxParallel int // concurrent assumptions, and concurrent fetches per assumption
}

// Checker orchestrates the complete fact-checking pipeline.
type Checker struct {
	chain       *chain.Chain
	searcher    search.Searcher
	fetcher     fetch.Fetcher
	maxResults  int
	maxParallel int
}

// NewChecker creates a checker from its collaborators.
func NewChecker(ch *chain.Chain, searcher search.Searcher, fetcher fetch.Fetcher, opts Options) *Checker {
	if opts.MaxResults <= 0 {
		opts.MaxResults = assumptionSearchLimit
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	return &Checker{
		chain:       ch,
		searcher:    searcher,
		fetcher:     fetcher,
		maxResults:  opts.MaxResults,
		maxParallel: opts.MaxParallel,
	}
}

// Backend names the reasoning backend, "heuristic" when none is configured.
func (c *Checker) Backend() string {
	return c.chain.BackendName()
}

// CheckClaim classifies the claim, drafts an answer, splits it into
// assumptions, verifies each against the web and synthesizes a verdict.
// Only search failures and cancellation abort the check.
func (c *Checker) CheckClaim(ctx context.Context, claim string) (*models.CheckResult, error) {
	start := time.Now()

	claimType := credibility.ClassifyClaim(claim)
	log.Info().Str("claim", claim).Str("type", string(claimType)).Msg("Checking claim")

	initial := c.chain.InitialResponse(ctx, claim)
	assumptions := c.chain.ExtractAssumptions(ctx, initial)
	log.Info().Int("count", len(assumptions)).Msg("Assumptions extracted")

	verifications, err := c.verifyAll(ctx, assumptions)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := make([]models.Label, len(verifications))
	for i, v := range verifications {
		labels[i] = v.Label
	}
	verdict := credibility.PickVerdict(labels)
	confidence := credibility.Confidence(verdict)
	sources := topSources(verifications)

	digest := chain.Digest{
		Claim:         claim,
		ClaimType:     claimType,
		Verifications: make([]chain.VerificationDigest, len(verifications)),
		Sources:       sources,
		Verdict:       verdict,
		Confidence:    confidence,
	}
	for i, v := range verifications {
		digest.Verifications[i] = chain.VerificationDigest{Assumption: v.Assumption, Label: v.Label}
	}
	synthesis := c.chain.Synthesize(ctx, digest)

	result := &models.CheckResult{
		ID:              uuid.New().String(),
		Claim:           claim,
		ClaimType:       claimType,
		InitialResponse: initial,
		Assumptions:     assumptions,
		Verifications:   verifications,
		Verdict:         verdict,
		Confidence:      confidence,
		Synthesis:       synthesis,
		Sources:         sources,
		Backend:         c.chain.BackendName(),
		DurationMs:      time.Since(start).Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}

	log.Info().
		Str("id", result.ID).
		Str("verdict", string(verdict)).
		Int("confidence", confidence).
		Int("sources", len(sources)).
		Int64("duration_ms", result.DurationMs).
		Msg("Check complete")

	return result, nil
}

// verifyAll verifies assumptions concurrently, keeping assumption order.
// The first failure cancels the remaining work and is returned.
func (c *Checker) verifyAll(ctx context.Context, assumptions []string) ([]models.AssumptionVerification, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	verifications := make([]models.AssumptionVerification, len(assumptions))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	semaphore := make(chan struct{}, c.maxParallel)
	for i := range assumptions {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				fail(ctx.Err())
				return
			}
			defer func() { <-semaphore }()

			v, err := c.verifyAssumption(ctx, assumptions[idx])
			if err != nil {
				fail(fmt.Errorf("verify assumption %q: %w", assumptions[idx], err))
				return
			}
			verifications[idx] = v
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return verifications, nil
}
