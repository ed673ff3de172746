package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/factchecker/claimcheck/internal/database"
	"github.com/factchecker/claimcheck/internal/models"
	"github.com/factchecker/claimcheck/internal/verify"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxClaimBytes = 64 << 10

// Handler contains all HTTP handlers.
type Handler struct {
	service      *verify.Service
	store        database.Store
	checkTimeout time.Duration
	version      string
}

// NewHandler creates a new handler.
func NewHandler(service *verify.Service, store database.Store, checkTimeout time.Duration, version string) *Handler {
	return &Handler{
		service:      service,
		store:        store,
		checkTimeout: checkTimeout,
		version:      version,
	}
}

// HealthCheck returns the service health status and reasoning mode.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	backend := h.service.Backend()
	mode := "llm"
	if backend == "heuristic" {
		mode = "heuristic"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   h.version,
		"backend":   backend,
		"mode":      mode,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckClaim runs (or recalls) a fact-check of one claim.
func (h *Handler) CheckClaim(w http.ResponseWriter, r *http.Request) {
	var req models.CheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClaimBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claim := strings.TrimSpace(req.Claim)
	if claim == "" {
		writeError(w, http.StatusBadRequest, "Claim is required")
		return
	}

	ctx := r.Context()
	if h.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.checkTimeout)
		defer cancel()
	}

	result, cached, err := h.service.Check(ctx, claim, req.Fresh)
	if err != nil {
		log.Error().Err(err).Str("claim", claim).Msg("Check failed")
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "Check timed out")
			return
		}
		writeError(w, http.StatusBadGateway, "Check failed: "+err.Error())
		return
	}

	if cached {
		w.Header().Set("X-Claimcheck-Cached", "true")
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GetCheck returns a stored check by ID.
func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	result, err := h.store.GetCheck(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Check not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get check")
		writeError(w, http.StatusInternalServerError, "Failed to get check")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListChecks returns paginated check summaries.
func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	checks, err := h.store.ListChecks(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list checks")
		writeError(w, http.StatusInternalServerError, "Failed to list checks")
		return
	}
	if checks == nil {
		checks = []*models.CheckSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"checks": checks,
		"limit":  limit,
		"offset": offset,
	})
}

// GetAuditLogs returns paginated audit logs.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)

	logs, err := h.store.GetAuditLogs(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "Failed to get audit logs")
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateAPIKey creates a new API key.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string `json:"name"`
		RequestsPerMinute int    `json:"requests_per_minute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate key")
		return
	}
	rawKey := "cck_" + base64.RawURLEncoding.EncodeToString(keyBytes)

	if req.RequestsPerMinute <= 0 {
		req.RequestsPerMinute = 60
	}

	apiKey := &models.APIKey{
		ID:                uuid.New().String(),
		KeyHash:           hashKey(rawKey),
		Name:              req.Name,
		RequestsPerMinute: req.RequestsPerMinute,
		CreatedAt:         time.Now().UTC(),
	}

	if err := h.store.CreateAPIKey(r.Context(), apiKey); err != nil {
		log.Error().Err(err).Msg("Failed to create API key")
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	// The raw key is only ever returned here.
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":                  apiKey.ID,
		"key":                 rawKey,
		"name":                apiKey.Name,
		"requests_per_minute": apiKey.RequestsPerMinute,
		"created_at":          apiKey.CreatedAt,
	})
}

// ListAPIKeys lists all API keys (without the actual keys).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list API keys")
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys": keys,
	})
}

// DeleteAPIKey deletes an API key.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	err := h.store.DeleteAPIKey(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete API key")
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request, defaultLimit int) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
