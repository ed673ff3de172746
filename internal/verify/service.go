package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/factchecker/claimcheck/internal/database"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// Claimer checks a single claim.
type Claimer interface {
	CheckClaim(ctx context.Context, claim string) (*models.CheckResult, error)
	Backend() string
}

// Service adds result history on top of a checker: identical claims checked
// with the same backend are answered from the store while the stored result
// is younger than the history TTL, unless a fresh check is requested.
type Service struct {
	checker    Claimer
	store      database.Store
	historyTTL time.Duration
}

// NewService creates a service. A nil store disables history; a
// non-positive historyTTL keeps stored results indefinitely.
func NewService(checker Claimer, store database.Store, historyTTL time.Duration) *Service {
	return &Service{checker: checker, store: store, historyTTL: historyTTL}
}

// Backend names the reasoning backend of the underlying checker.
func (s *Service) Backend() string {
	return s.checker.Backend()
}

// ClaimHash identifies a claim independently of case, spacing and Unicode
// composition.
func ClaimHash(claim string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(claim))), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Check returns the stored result for the claim when one exists and fresh
// is false, and otherwise runs and stores a new check. The second return
// value reports whether the result came from the store.
func (s *Service) Check(ctx context.Context, claim string, fresh bool) (*models.CheckResult, bool, error) {
	hash := ClaimHash(claim)

	if s.store != nil && !fresh {
		existing, err := s.store.GetCheckByHash(ctx, hash, s.checker.Backend())
		switch {
		case err == nil && s.expired(existing):
			log.Debug().Str("id", existing.ID).Time("created_at", existing.CreatedAt).Msg("Stored check expired")
		case err == nil:
			log.Info().Str("id", existing.ID).Msg("Returning stored check")
			return existing, true, nil
		case !errors.Is(err, database.ErrNotFound):
			log.Error().Err(err).Msg("Failed to look up stored check")
		}
	}

	result, err := s.checker.CheckClaim(ctx, claim)
	if err != nil {
		return nil, false, err
	}

	if s.store != nil {
		if err := s.store.SaveCheck(ctx, hash, result); err != nil {
			log.Error().Err(err).Str("id", result.ID).Msg("Failed to save check")
		}
	}
	return result, false, nil
}

func (s *Service) expired(result *models.CheckResult) bool {
	return s.historyTTL > 0 && time.Since(result.CreatedAt) > s.historyTTL
}
