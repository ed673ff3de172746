// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	LLM         LLMConfig       `yaml:"llm"`
	Search      SearchConfig    `yaml:"search"`
	HTTP        HTTPConfig      `yaml:"http"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
	RateLimits  RateLimitConfig `yaml:"rate_limits"`
	Logging     LoggingConfig   `yaml:"logging"`
	Prompts     Prompts         `yaml:"prompts"`
	PromptsFile string          `yaml:"prompts_file"`
}

type ServerConfig struct {
	Port     int  `yaml:"port"`
	EnableUI bool `yaml:"enable_ui"`

	// AdminToken guards /api/v1/admin. Empty disables the admin endpoints.
	AdminToken string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite
	Path   string `yaml:"path"`
}

// LLMConfig selects the text-completion backend. An empty or "noop"
// provider runs the pipeline on heuristics only.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, gemini, ollama, noop
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	OllamaURL   string  `yaml:"ollama_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type SearchConfig struct {
	Engines    []string `yaml:"engines"` // duckduckgo, wikipedia, pubmed
	MaxResults int      `yaml:"max_results"`
	SafeSearch string   `yaml:"safe_search"` // strict, moderate, off
	Region     string   `yaml:"region"`
}

type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	RespectRobots     bool          `yaml:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type PipelineConfig struct {
	MaxParallel  int           `yaml:"max_parallel"`
	CheckTimeout time.Duration `yaml:"check_timeout"`
	HistoryTTL   time.Duration `yaml:"history_ttl"` // 0 keeps stored checks forever
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			EnableUI: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/claimcheck.db",
		},
		LLM: LLMConfig{
			Provider:    "noop",
			OllamaURL:   "http://localhost:11434",
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Search: SearchConfig{
			Engines:    []string{"duckduckgo"},
			MaxResults: 6,
			SafeSearch: "moderate",
			Region:     "in-en",
		},
		HTTP: HTTPConfig{
			Timeout:           12 * time.Second,
			UserAgent:         "AI-FactCheckerBot/1.0",
			MaxBodyBytes:      2_000_000,
			RespectRobots:     false,
			RequestsPerSecond: 2,
			CacheTTL:          15 * time.Minute,
		},
		Pipeline: PipelineConfig{
			MaxParallel:  4,
			CheckTimeout: 3 * time.Minute,
			HistoryTTL:   24 * time.Hour,
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Prompts: DefaultPrompts(),
	}
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s (run 'claimcheck config init' to create one)", path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		content := interpolateEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.PromptsFile != "" {
		prompts, err := LoadPrompts(cfg.PromptsFile)
		if err != nil {
			return nil, err
		}
		cfg.Prompts = cfg.Prompts.Merge(prompts)
	}
	cfg.Prompts = DefaultPrompts().Merge(cfg.Prompts)

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the plain environment variables the
// fact-checker has always honoured (PROVIDER, OPENAI_API_KEY, ...).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("PROVIDER"); ok {
		c.LLM.Provider = strings.ToLower(v)
	}

	// API keys only fill in what the file left empty, for the active provider.
	if c.LLM.APIKey == "" {
		var key string
		switch c.LLM.Provider {
		case "openai":
			key = "OPENAI_API_KEY"
		case "anthropic", "claude":
			key = "ANTHROPIC_API_KEY"
		case "gemini":
			key = "GEMINI_API_KEY"
		}
		if key != "" {
			if v, ok := get(key); ok {
				c.LLM.APIKey = v
			}
		}
	}

	if c.LLM.Provider == "ollama" {
		if v, ok := get("OLLAMA_MODEL"); ok {
			c.LLM.Model = v
		}
	}
	if v, ok := get("OLLAMA_HOST"); ok {
		c.LLM.OllamaURL = v
	}

	if v, ok := get("MAX_SEARCH_RESULTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_SEARCH_RESULTS %q: %w", v, err)
		}
		c.Search.MaxResults = n
	}
	if v, ok := get("REQUEST_TIMEOUT"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.HTTP.Timeout = time.Duration(secs) * time.Second
	}
	if v, ok := get("USER_AGENT"); ok {
		c.HTTP.UserAgent = v
	}

	return nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# claimcheck configuration
# Values of the form ${VAR} are read from the environment.

server:
  port: 8080
  enable_ui: true
  admin_token: ${CLAIMCHECK_ADMIN_TOKEN}  # empty disables /api/v1/admin

database:
  driver: sqlite
  path: ./data/claimcheck.db

llm:
  provider: noop  # openai, anthropic, gemini, ollama, noop
  model: gpt-4o-mini
  api_key: ${OPENAI_API_KEY}
  temperature: 0.2
  max_tokens: 1024

  # For Anthropic Claude:
  # provider: anthropic
  # model: claude-3-5-sonnet-20240620
  # api_key: ${ANTHROPIC_API_KEY}

  # For a local Ollama server:
  # provider: ollama
  # model: llama3.1
  # ollama_url: http://localhost:11434

search:
  engines: [duckduckgo]  # duckduckgo, wikipedia, pubmed
  max_results: 6
  safe_search: moderate  # strict, moderate, off
  region: in-en

http:
  timeout: 12s
  user_agent: AI-FactCheckerBot/1.0
  max_body_bytes: 2000000
  respect_robots: false
  requests_per_second: 2
  cache_ttl: 15m

pipeline:
  max_parallel: 4
  check_timeout: 3m
  history_ttl: 24h  # reuse stored checks this long; 0 keeps them forever

rate_limits:
  default_requests_per_minute: 30

logging:
  level: info   # debug, info, warn, error
  format: text  # json or text

# Prompt templates. verify_assumption must contain {assumption}.
# prompts_file: ./config/prompts.yaml
# prompts:
#   initial_response: |
#     You are a careful fact-checker. Answer the claim briefly.
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid. An unusable LLM
// provider is not an error here; the pipeline falls back to heuristics.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search max_results must be positive, got %d", c.Search.MaxResults)
	}
	if len(c.Search.Engines) == 0 {
		return fmt.Errorf("at least one search engine is required")
	}
	validEngines := map[string]bool{"duckduckgo": true, "wikipedia": true, "pubmed": true}
	for _, e := range c.Search.Engines {
		if !validEngines[strings.ToLower(e)] {
			return fmt.Errorf("unsupported search engine: %s", e)
		}
	}
	switch c.Search.SafeSearch {
	case "strict", "moderate", "off":
	default:
		return fmt.Errorf("invalid safe_search level: %s", c.Search.SafeSearch)
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http user_agent is required")
	}
	if c.Pipeline.MaxParallel < 1 {
		return fmt.Errorf("pipeline max_parallel must be at least 1")
	}
	if c.Pipeline.HistoryTTL < 0 {
		return fmt.Errorf("pipeline history_ttl must not be negative")
	}

	if err := c.Prompts.Validate(); err != nil {
		return err
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return ""
	})
}
