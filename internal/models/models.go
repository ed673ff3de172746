// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// ClaimType is the coarse category a claim falls into before any evidence is gathered.
type ClaimType string

const (
	ClaimTypeOpinion      ClaimType = "Opinion"
	ClaimTypeUnverifiable ClaimType = "Unverifiable"
	ClaimTypeFactual      ClaimType = "Factual"
	ClaimTypeMixed        ClaimType = "Mixed"
)

// Label is the judgement attached to a single assumption.
type Label string

const (
	LabelTrue      Label = "TRUE"
	LabelFalse     Label = "FALSE"
	LabelUncertain Label = "UNCERTAIN"
)

// Verdict is the claim-level outcome aggregated from assumption labels.
type Verdict string

const (
	VerdictTrue      Verdict = "True"
	VerdictFalse     Verdict = "False"
	VerdictMixed     Verdict = "Mixed"
	VerdictUncertain Verdict = "Uncertain"
)

// SearchHit is a single result returned by a web search engine.
type SearchHit struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// EvidencePage is a fetched and parsed web page considered as evidence.
// Published holds the page's wall-clock publish time with the zone dropped.
type EvidencePage struct {
	URL       string     `json:"url"`
	Domain    string     `json:"domain"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	Published *time.Time `json:"published,omitempty"`
	Score     float64    `json:"score"`
	Error     string     `json:"error,omitempty"`
}

// AssumptionVerification is the outcome of checking one assumption against the web.
type AssumptionVerification struct {
	Assumption string         `json:"assumption"`
	Label      Label          `json:"label"`
	LLMLabel   Label          `json:"llm_label"`
	Rationale  string         `json:"rationale"`
	Evidence   []EvidencePage `json:"evidence"`
}

// Source is a supporting page surfaced in the final result.
type Source struct {
	Domain    string  `json:"domain"`
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Published *string `json:"published"`
}

// CheckResult is the complete output of checking one claim.
type CheckResult struct {
	ID              string                   `json:"id"`
	Claim           string                   `json:"claim"`
	ClaimType       ClaimType                `json:"claim_type"`
	InitialResponse string                   `json:"initial_response"`
	Assumptions     []string                 `json:"assumptions"`
	Verifications   []AssumptionVerification `json:"verifications"`
	Verdict         Verdict                  `json:"verdict"`
	Confidence      int                      `json:"confidence"`
	Synthesis       string                   `json:"synthesis"`
	Sources         []Source                 `json:"sources"`
	Backend         string                   `json:"backend"`
	DurationMs      int64                    `json:"duration_ms"`
	CreatedAt       time.Time                `json:"created_at"`
}

// CheckSummary is the indexed, list-friendly view of a stored check.
type CheckSummary struct {
	ID         string    `json:"id"`
	ClaimHash  string    `json:"claim_hash"`
	Claim      string    `json:"claim"`
	ClaimType  ClaimType `json:"claim_type"`
	Verdict    Verdict   `json:"verdict"`
	Confidence int       `json:"confidence"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// APIKey represents an API key for authentication.
type APIKey struct {
	ID                string     `json:"id"`
	KeyHash           string     `json:"-"`
	Name              string     `json:"name"`
	RequestsPerMinute int        `json:"requests_per_minute"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

// AuditLog represents an API request audit entry.
type AuditLog struct {
	ID           string    `json:"id"`
	APIKeyID     string    `json:"api_key_id"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// CheckRequest is the request body for the check endpoint.
type CheckRequest struct {
	Claim string `json:"claim"`
	Fresh bool   `json:"fresh,omitempty"`
}
