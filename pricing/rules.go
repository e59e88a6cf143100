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

package pricing

import (
	"math"

	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"
)

// ServiceRule is one third-party service line item. When evaluates to a bool
// against the estimation aggregates; Cost evaluates to the line-item amount.
// Rules come from configuration so the thresholds are not baked in.
type ServiceRule struct {
	Name string `yaml:"name" json:"name"`
	When string `yaml:"when" json:"when"`
	Cost string `yaml:"cost" json:"cost"`
}

// LineItem is an evaluated service rule.
type LineItem struct {
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// RuleInputs are the aggregates a service rule may reference.
type RuleInputs struct {
	TeamSize    float64 // sum of teamComposition.count
	AvgDuration float64 // average teamComposition.duration, in days
	TotalHours  float64
}

// DefaultServiceRules mirror the built-in heuristic: a dev/test environment
// for teams of three or more, CI/CD tooling once the project exceeds 200
// hours. Rates are monthly, duration is billed in started months.
func DefaultServiceRules() []ServiceRule {
	return []ServiceRule{
		{
			Name: "云服务器（开发测试环境）",
			When: "teamSize >= 3",
			Cost: "ceil(avgDuration / 30) * 2000",
		},
		{
			Name: "CI/CD 工具服务",
			When: "totalHours > 200",
			Cost: "ceil(avgDuration / 30) * 500",
		},
	}
}

var ruleFunctions = map[string]govaluate.ExpressionFunction{
	"ceil": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.New("ceil expects one argument")
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, errors.Errorf("ceil expects a number, got %T", args[0])
		}
		return math.Ceil(v), nil
	},
	"round": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.New("round expects one argument")
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, errors.Errorf("round expects a number, got %T", args[0])
		}
		return math.Round(v), nil
	},
}

// EvaluateServiceRules runs every rule against in and returns the line items
// whose condition held. A rule that fails to parse or evaluate aborts the
// whole evaluation; a silently skipped rule would understate the quote.
func EvaluateServiceRules(rules []ServiceRule, in RuleInputs) ([]LineItem, error) {
	params := map[string]interface{}{
		"teamSize":    in.TeamSize,
		"avgDuration": in.AvgDuration,
		"totalHours":  in.TotalHours,
	}
	var items []LineItem
	for _, r := range rules {
		cond, err := govaluate.NewEvaluableExpressionWithFunctions(r.When, ruleFunctions)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: bad condition %q: %v", r.Name, r.When, err)
		}
		hit, err := cond.Evaluate(params)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: evaluate condition: %v", r.Name, err)
		}
		match, ok := hit.(bool)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: condition is not boolean", r.Name)
		}
		if !match {
			continue
		}
		costExpr, err := govaluate.NewEvaluableExpressionWithFunctions(r.Cost, ruleFunctions)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: bad cost %q: %v", r.Name, r.Cost, err)
		}
		amount, err := costExpr.Evaluate(params)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: evaluate cost: %v", r.Name, err)
		}
		cost, ok := amount.(float64)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidConfig, "rule %q: cost is not numeric", r.Name)
		}
		items = append(items, LineItem{Name: r.Name, Cost: int64(math.Round(cost))})
	}
	return items, nil
}
