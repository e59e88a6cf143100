// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the application configuration from an optional YAML
// file with environment variable overrides for the model credentials.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/pricing"
)

// Config is the full application configuration.
type Config struct {
	Model     llm.ModelConfig `yaml:"model"`
	Pricing   pricing.Config  `yaml:"pricing"`
	Server    Server          `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Templates Templates       `yaml:"templates"`
	// Industry selects industry-specific prompt templates, empty for none.
	Industry string `yaml:"industry"`
}

// Server configures the HTTP boundary adapter.
type Server struct {
	Addr string `yaml:"addr"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Templates configures the optional template directory. When both the
// directory and the store carry templates the store wins.
type Templates struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: llm.ModelConfig{
			Name:    "default",
			APIType: llm.ModelTypeOpenAI,
		},
		Pricing: pricing.DefaultConfig(),
		Server:  Server{Addr: ":8080"},
		Store:   StoreConfig{Path: "presales.db"},
	}
}

// Load reads path (optional, "" for defaults) and applies env overrides:
// LLM_API_KEY, LLM_MODEL_NAME, LLM_MODEL_TYPE, LLM_BASE_URL.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Pricing.HoursPerDay == 0 && cfg.Pricing.LaborCostPerDay == 0 {
		cfg.Pricing = pricing.DefaultConfig()
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL_NAME"); v != "" {
		cfg.Model.ModelName = v
	}
	if v := os.Getenv("LLM_MODEL_TYPE"); v != "" {
		cfg.Model.APIType = llm.NewModelType(v)
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	return cfg, nil
}
