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
	"testing"

	"github.com/pkg/errors"
)

func TestEvaluateDefaultServiceRules(t *testing.T) {
	tests := []struct {
		name  string
		in    RuleInputs
		costs []int64
	}{
		{
			name: "large team long project hits both rules",
			// 45 days is 2 started months: 2*2000 and 2*500.
			in:    RuleInputs{TeamSize: 3, AvgDuration: 45, TotalHours: 250},
			costs: []int64{4000, 1000},
		},
		{
			name:  "small short project hits none",
			in:    RuleInputs{TeamSize: 2, AvgDuration: 20, TotalHours: 100},
			costs: nil,
		},
		{
			name:  "team threshold only",
			in:    RuleInputs{TeamSize: 4, AvgDuration: 30, TotalHours: 150},
			costs: []int64{2000},
		},
		{
			name:  "hours threshold only",
			in:    RuleInputs{TeamSize: 2, AvgDuration: 60, TotalHours: 201},
			costs: []int64{1000},
		},
		{
			name:  "boundary: exactly 200 hours does not trigger CI/CD",
			in:    RuleInputs{TeamSize: 1, AvgDuration: 30, TotalHours: 200},
			costs: nil,
		},
	}

	rules := DefaultServiceRules()
	for _, tt := range tests {
		items, err := EvaluateServiceRules(rules, tt.in)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if len(items) != len(tt.costs) {
			t.Errorf("%s: got %d items, want %d", tt.name, len(items), len(tt.costs))
			continue
		}
		for i, it := range items {
			if it.Cost != tt.costs[i] {
				t.Errorf("%s: item %d (%s) cost = %d, want %d", tt.name, i, it.Name, it.Cost, tt.costs[i])
			}
			if it.Name == "" {
				t.Errorf("%s: item %d has empty name", tt.name, i)
			}
		}
	}
}

func TestEvaluateServiceRulesBadExpression(t *testing.T) {
	tests := []struct {
		name  string
		rules []ServiceRule
	}{
		{"unparsable condition", []ServiceRule{{Name: "r", When: "teamSize >=", Cost: "100"}}},
		{"non-boolean condition", []ServiceRule{{Name: "r", When: "teamSize + 1", Cost: "100"}}},
		{"unknown variable", []ServiceRule{{Name: "r", When: "headcount > 3", Cost: "100"}}},
		{"non-numeric cost", []ServiceRule{{Name: "r", When: "teamSize >= 0", Cost: "'free'"}}},
	}

	for _, tt := range tests {
		_, err := EvaluateServiceRules(tt.rules, RuleInputs{TeamSize: 5, AvgDuration: 30, TotalHours: 300})
		if err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: error = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestEvaluateServiceRulesCustomFunctions(t *testing.T) {
	rules := []ServiceRule{
		{Name: "ceil", When: "true", Cost: "ceil(1.2) * 100"},
		{Name: "round", When: "true", Cost: "round(2.5) * 10"},
	}
	items, err := EvaluateServiceRules(rules, RuleInputs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Cost != 200 {
		t.Errorf("ceil rule cost = %d, want 200", items[0].Cost)
	}
	if items[1].Cost != 30 {
		t.Errorf("round rule cost = %d, want 30", items[1].Cost)
	}
}
