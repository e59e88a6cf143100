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
	"strconv"
	"strings"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/pricing"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/workflow"
)

var _ workflow.Stage = (*Estimate)(nil)

// Estimate turns the function module list into an effort estimation with a
// team composition. The base and difficulty-weighted hour aggregates are
// computed here and handed to the model as anchors.
type Estimate struct {
	Generator llm.Generator
	Templates prompt.Source
	Industry  string
}

// Name implements workflow.Stage.
func (s *Estimate) Name() string { return "estimate" }

// Run implements workflow.Stage.
func (s *Estimate) Run(ctx context.Context, st *workflow.State) *workflow.Update {
	if len(st.Functions) == 0 {
		return &workflow.Update{Err: "missing function modules, cannot estimate effort"}
	}
	if st.Analysis == nil {
		return &workflow.Update{Err: "missing analysis result, cannot estimate effort"}
	}

	var baseHours, weightedHours float64
	for _, fn := range st.Functions {
		baseHours += fn.EstimatedHours
		weightedHours += pricing.WeightedHours(fn.EstimatedHours, fn.DifficultyLevel)
	}

	tpl := prompt.Resolve(ctx, s.Templates, prompt.KindEffortEstimation, s.Industry)
	p := prompt.Render(tpl, map[string]string{
		"moduleCount":   strconv.Itoa(len(st.Functions)),
		"baseHours":     formatHours(baseHours),
		"weightedHours": strconv.FormatFloat(math.Round(weightedHours), 'f', -1, 64),
		"modules":       describeModules(st.Functions),
		"projectType":   st.Analysis.ProjectType,
		"techStack":     strings.Join(st.Analysis.TechStack, ", "),
	})

	var estimation workflow.Estimation
	if err := s.Generator.Generate(ctx, p, &estimation); err != nil {
		return &workflow.Update{Err: "estimation failed: " + err.Error()}
	}
	if len(estimation.TeamComposition) == 0 {
		return &workflow.Update{Err: "estimation failed: model returned no team composition"}
	}

	log.Info("estimation done: total=%vh team roles=%d",
		estimation.TotalHours, len(estimation.TeamComposition))

	return &workflow.Update{
		Estimation:  &estimation,
		CurrentStep: workflow.StepCalculate,
	}
}

func describeModules(fns []workflow.FunctionModule) string {
	var sb strings.Builder
	for i, fn := range fns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s - %s\n   难度: %s, 基础工时: %sh\n   描述: %s",
			i+1, fn.ModuleName, fn.FunctionName,
			fn.DifficultyLevel, formatHours(fn.EstimatedHours), fn.Description)
	}
	return sb.String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
