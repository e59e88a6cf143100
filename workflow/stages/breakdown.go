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

package stages

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/workflow"
)

var _ workflow.Stage = (*Breakdown)(nil)

// Breakdown splits the analyzed requirement into function modules.
type Breakdown struct {
	Generator llm.Generator
	Templates prompt.Source
	Industry  string
}

// functionModules is the expected model output shape.
type functionModules struct {
	Modules []workflow.FunctionModule `json:"modules" jsonschema:"description=the complete function module list"`
}

// Name implements workflow.Stage.
func (s *Breakdown) Name() string { return "breakdown" }

// Run implements workflow.Stage.
func (s *Breakdown) Run(ctx context.Context, st *workflow.State) *workflow.Update {
	if st.Analysis == nil {
		return &workflow.Update{Err: "missing analysis result, cannot break down functions"}
	}

	tpl := prompt.Resolve(ctx, s.Templates, prompt.KindFunctionBreakdown, s.Industry)
	p := prompt.Render(tpl, map[string]string{
		"projectType":   st.Analysis.ProjectType,
		"businessGoals": bulleted(st.Analysis.BusinessGoals),
		"keyFeatures":   bulleted(st.Analysis.KeyFeatures),
		"techStack":     strings.Join(st.Analysis.TechStack, ", "),
	})

	var out functionModules
	if err := s.Generator.Generate(ctx, p, &out); err != nil {
		return &workflow.Update{Err: "breakdown failed: " + err.Error()}
	}
	if len(out.Modules) == 0 {
		return &workflow.Update{Err: "breakdown failed: model returned no function modules"}
	}
	for i, fn := range out.Modules {
		if math.IsNaN(fn.EstimatedHours) || math.IsInf(fn.EstimatedHours, 0) || fn.EstimatedHours < 0 {
			return &workflow.Update{Err: fmt.Sprintf("breakdown failed: module %d has invalid estimated hours %v", i+1, fn.EstimatedHours)}
		}
	}

	log.Info("breakdown done: %d modules", len(out.Modules))

	return &workflow.Update{
		Functions:   out.Modules,
		CurrentStep: workflow.StepEstimate,
	}
}

func bulleted(items []string) string {
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(it)
	}
	return sb.String()
}
