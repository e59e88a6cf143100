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
	"strings"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/workflow"
)

var _ workflow.Stage = (*Analyze)(nil)

// Analyze extracts the structured requirement analysis from the raw
// requirement text.
type Analyze struct {
	Generator llm.Generator
	Templates prompt.Source
	Industry  string
}

// Name implements workflow.Stage.
func (s *Analyze) Name() string { return "analyze" }

// Run implements workflow.Stage.
func (s *Analyze) Run(ctx context.Context, st *workflow.State) *workflow.Update {
	if strings.TrimSpace(st.RawRequirement) == "" {
		return &workflow.Update{Err: "requirement text must not be empty"}
	}

	tpl := prompt.Resolve(ctx, s.Templates, prompt.KindRequirementAnalysis, s.Industry)
	p := prompt.Render(tpl, map[string]string{
		"requirement": st.RawRequirement,
		"需求内容":        st.RawRequirement,
	})

	var analysis workflow.Analysis
	if err := s.Generator.Generate(ctx, p, &analysis); err != nil {
		return &workflow.Update{Err: "analysis failed: " + err.Error()}
	}
	if analysis.ProjectType == "" {
		return &workflow.Update{Err: "analysis failed: empty project type in model output"}
	}

	log.Info("analysis done: type=%s features=%d risks=%d",
		analysis.ProjectType, len(analysis.KeyFeatures), len(analysis.Risks))

	return &workflow.Update{
		Analysis:    &analysis,
		CurrentStep: workflow.StepBreakdown,
	}
}
