// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func init() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("model.base_url", "https://api.openai.com/v1")
	viper.SetDefault("model.model", "gpt-4o")
	viper.SetDefault("model.max_tokens", 4096)
	viper.SetDefault("model.max_retries", 3)
	viper.SetDefault("model.timeout", time.Minute)
	viper.SetDefault("model.mock", false)
	viper.SetDefault("literature.min_interval", time.Second)
	viper.SetDefault("literature.cache_ttl", 10*time.Minute)
	viper.SetDefault("literature.max_retries", 3)
	viper.SetDefault("literature.timeout", 30*time.Second)
	viper.SetDefault("literature.mock", false)
	viper.SetDefault("pipeline.skip_length_adjust", false)
	viper.SetDefault("store.path", "draft-engine.db")
}

// engineConfig assembles the full configuration from viper and the
// preloaded secrets. API keys in config or environment win over .secrets/.
func engineConfig() types.EngineConfig {
	return types.EngineConfig{
		Model: types.ModelConfig{
			HTTPConfig: types.HTTPConfig{Timeout: viper.GetDuration("model.timeout")},
			BaseURL:    viper.GetString("model.base_url"),
			Model:      viper.GetString("model.model"),
			APIKey:     secretDefault("model-api-key", viper.GetString("model.api_key")),
			MaxTokens:  viper.GetInt("model.max_tokens"),
			MaxRetries: viper.GetInt("model.max_retries"),
			MockMode:   viper.GetBool("model.mock"),
		},
		Literature: types.LiteratureConfig{
			HTTPConfig:  types.HTTPConfig{Timeout: viper.GetDuration("literature.timeout")},
			BaseURL:     viper.GetString("literature.base_url"),
			APIKey:      secretDefault("literature-api-key", viper.GetString("literature.api_key")),
			MinInterval: viper.GetDuration("literature.min_interval"),
			CacheTTL:    viper.GetDuration("literature.cache_ttl"),
			MaxRetries:  viper.GetInt("literature.max_retries"),
			MockMode:    viper.GetBool("literature.mock"),
		},
		Pipeline: types.PipelineConfig{
			SkipLengthAdjust: viper.GetBool("pipeline.skip_length_adjust"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
	}
}
