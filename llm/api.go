/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
)

type ModelConfig struct {
	Name        string        `json:"name" yaml:"name"` // alias of the config, not endpoint!
	APIType     ModelType     `json:"type" yaml:"type"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	APIKey      string        `json:"api_key" yaml:"api_key"`
	ModelName   string        `json:"model_name" yaml:"model_name"` // the endpoint of the model, like `claude-opus-4-20250514`
	Temperature *float32      `json:"temperature" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"` // HTTP request timeout, default: 600s
	Retries     int           `json:"retries" yaml:"retries"` // Number of retries on failure, default: 3
}

type ModelType string

func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "ollama":
		return ModelTypeOllama
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "dashscope", "qwen", "tongyi":
		return ModelTypeDashScope
	case "deepseek":
		return ModelTypeDeepSeek
	}
	return ModelTypeUnknown
}

const (
	ModelTypeUnknown   ModelType = ""
	ModelTypeOllama    ModelType = "ollama"
	ModelTypeARK       ModelType = "ark"
	ModelTypeOpenAI    ModelType = "openai"
	ModelTypeClaude    ModelType = "claude"
	ModelTypeDashScope ModelType = "dashscope" // 阿里云 DashScope (通义千问)
	ModelTypeDeepSeek  ModelType = "deepseek"  // DeepSeek
)

// Generator is the structured generation capability consumed by the workflow
// stages: render a prompt, get back a value filling out. Implementations must
// be safe for concurrent use by unrelated runs.
type Generator interface {
	// Generate calls the LLM with prompt and unmarshals the reply into out,
	// which must be a pointer to a JSON-taggable struct.
	Generate(ctx context.Context, prompt string, out any) error
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(ctx context.Context, prompt string, out any) error

func (f GenerateFunc) Generate(ctx context.Context, prompt string, out any) error {
	return f(ctx, prompt, out)
}

// ChatModel is the interface for making LLM backend.
type ChatModel interface {
	model.BaseChatModel
}
