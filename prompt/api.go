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

package prompt

import (
	"context"
	_ "embed"
	"strings"

	"github.com/fanjia1024/presales-agent/internal/log"
)

// Kind identifies a prompt template slot.
type Kind string

const (
	KindRequirementAnalysis Kind = "requirement_analysis"
	KindFunctionBreakdown   Kind = "function_breakdown"
	KindEffortEstimation    Kind = "effort_estimation"
	KindCostCalculation     Kind = "cost_calculation"
)

// Source looks up an externally managed template. A miss is ("", nil);
// lookup errors are logged by Resolve and treated as a miss, never as a
// stage failure.
type Source interface {
	GetTemplate(ctx context.Context, kind Kind, industry string) (string, error)
}

//go:embed analyze.md
var defaultAnalyze string

//go:embed breakdown.md
var defaultBreakdown string

//go:embed estimate.md
var defaultEstimate string

var defaults = map[Kind]string{
	KindRequirementAnalysis: defaultAnalyze,
	KindFunctionBreakdown:   defaultBreakdown,
	KindEffortEstimation:    defaultEstimate,
}

// Default returns the built-in template for kind ("" when the kind has none,
// e.g. cost calculation which is pure arithmetic).
func Default(kind Kind) string {
	return defaults[kind]
}

// Resolve fetches the template for kind from src, falling back to the
// built-in default when src is nil, misses, or fails.
func Resolve(ctx context.Context, src Source, kind Kind, industry string) string {
	if src != nil {
		tpl, err := src.GetTemplate(ctx, kind, industry)
		if err != nil {
			log.Info("template lookup %s/%s failed, using default: %v", kind, industry, err)
		} else if tpl != "" {
			return tpl
		}
	}
	return Default(kind)
}

type chain []Source

func (c chain) GetTemplate(ctx context.Context, kind Kind, industry string) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tpl, err := src.GetTemplate(ctx, kind, industry)
		if err != nil {
			return "", err
		}
		if tpl != "" {
			return tpl, nil
		}
	}
	return "", nil
}

// Chain combines sources; the first one that has the template wins.
func Chain(sources ...Source) Source {
	return chain(sources)
}

// Render substitutes {name} placeholders in tpl. Unknown placeholders are
// left as is so a malformed template stays visible in the prompt.
func Render(tpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
