// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-attempt HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "draft-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ModelConfig holds settings for the model invocation gateway.
// Per prd003-model-gateway R1.1-R1.4, R5.1-R5.3.
type ModelConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the chat-completion endpoint base (e.g. "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model identifier requested on each call.
	Model string `json:"model" yaml:"model"`

	// APIKey is the bearer credential for the model backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps completion length when a call does not set its own.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries bounds retry attempts for 429/5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MockMode makes the gateway return deterministic canned content
	// instead of calling the network backend.
	MockMode bool `json:"mock_mode" yaml:"mock_mode"`
}

// LiteratureConfig holds settings for the literature search client.
// Per prd002-literature R1.3, R4.1-R4.4.
type LiteratureConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the bibliographic search endpoint base.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the search API credential. A missing key is a
	// configuration error, not a retried failure.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MinInterval is the minimum spacing between outbound requests
	// (default 1s). All concurrent runs share one request gate.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// CacheTTL bounds how long successful responses are reused (default 10m).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// MaxRetries bounds retry attempts for 429/5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MockMode makes the client return deterministic synthetic records
	// instead of calling the search API.
	MockMode bool `json:"mock_mode" yaml:"mock_mode"`
}

// PipelineConfig holds settings for the generation orchestrator.
// Per prd001-pipeline R4.1-R4.3.
type PipelineConfig struct {
	// SkipLengthAdjust disables the one-pass word-count convergence
	// rewrite during final assembly. Useful for deterministic testing.
	SkipLengthAdjust bool `json:"skip_length_adjust" yaml:"skip_length_adjust"`
}

// StoreConfig holds settings for the document store.
type StoreConfig struct {
	// Path is the SQLite database file (default "draft-engine.db").
	Path string `json:"path" yaml:"path"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Model      ModelConfig      `json:"model" yaml:"model"`
	Literature LiteratureConfig `json:"literature" yaml:"literature"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
