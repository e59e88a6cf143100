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

// Package stages implements the four pipeline stages. Each stage validates
// its preconditions against the incoming state and reports failures as data
// in the returned update, never as a Go error.
package stages

import (
	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/pricing"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/workflow"
)

// Options wires the external capabilities into the stages.
type Options struct {
	// Generator is the structured generation capability (required by the
	// three LLM-backed stages).
	Generator llm.Generator
	// Templates overrides the built-in prompt templates; nil means defaults.
	Templates prompt.Source
	// Industry selects industry-specific templates when the source has them.
	Industry string
	// Pricing holds the cost constants and service rules for Calculate.
	Pricing pricing.Config
}

// NewWorkflow assembles the standard four-stage workflow.
func NewWorkflow(opts Options) *workflow.Workflow {
	return workflow.New(
		&Analyze{Generator: opts.Generator, Templates: opts.Templates, Industry: opts.Industry},
		&Breakdown{Generator: opts.Generator, Templates: opts.Templates, Industry: opts.Industry},
		&Estimate{Generator: opts.Generator, Templates: opts.Templates, Industry: opts.Industry},
		&Calculate{Pricing: opts.Pricing},
	)
}
