// Package database provides the data access layer for stored checks, API
// keys and the request audit log.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/factchecker/claimcheck/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for data persistence.
type Store interface {
	// Checks
	SaveCheck(ctx context.Context, claimHash string, result *models.CheckResult) error
	GetCheck(ctx context.Context, id string) (*models.CheckResult, error)
	GetCheckByHash(ctx context.Context, claimHash, backend string) (*models.CheckResult, error)
	ListChecks(ctx context.Context, limit, offset int) ([]*models.CheckSummary, error)

	// API Keys
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error
	DeleteAPIKey(ctx context.Context, id string) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)

	// Audit logs
	LogRequest(ctx context.Context, log *models.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Lifecycle
	Close() error
	Migrate() error
}
