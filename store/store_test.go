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

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fanjia1024/presales-agent/pricing"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/workflow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestProjectLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "商城项目", "ecommerce")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != StatusDraft {
		t.Errorf("new project status = %q, want %q", p.Status, StatusDraft)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "商城项目" || got.Industry != "ecommerce" {
		t.Errorf("GetProject = %+v", got)
	}

	if err := s.UpdateProjectStatus(ctx, p.ID, StatusAnalyzing); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = s.GetProject(ctx, p.ID)
	if got.Status != StatusAnalyzing {
		t.Errorf("status = %q, want %q", got.Status, StatusAnalyzing)
	}

	missing, err := s.GetProject(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetProject(missing) = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestRequirementLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, "p", "")
	r, err := s.CreateRequirement(ctx, p.ID, "需要一个会员商城")
	if err != nil {
		t.Fatalf("create requirement: %v", err)
	}

	got, err := s.GetRequirement(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RawContent != "需要一个会员商城" || got.ProjectID != p.ID {
		t.Errorf("GetRequirement = %+v", got)
	}
	if got.Parsed != nil {
		t.Errorf("fresh requirement already parsed: %+v", got.Parsed)
	}

	analysis := &workflow.Analysis{ProjectType: "电商平台", KeyFeatures: []string{"会员", "商城"}}
	if err := s.UpdateRequirementAnalysis(ctx, r.ID, analysis); err != nil {
		t.Fatalf("update analysis: %v", err)
	}
	got, _ = s.GetRequirement(ctx, r.ID)
	if got.Parsed == nil || got.Parsed.ProjectType != "电商平台" || len(got.Parsed.KeyFeatures) != 2 {
		t.Errorf("Parsed = %+v", got.Parsed)
	}

	missing, err := s.GetRequirement(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetRequirement(missing) = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestReplaceFunctions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p, _ := s.CreateProject(ctx, "p", "")

	first := []workflow.FunctionModule{
		{ModuleName: "auth", FunctionName: "login", DifficultyLevel: "simple", EstimatedHours: 8},
		{ModuleName: "auth", FunctionName: "sso", DifficultyLevel: "complex", EstimatedHours: 24, Dependencies: []string{"login"}},
	}
	if err := s.ReplaceFunctions(ctx, p.ID, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	// A second run replaces, never appends.
	second := []workflow.FunctionModule{
		{ModuleName: "pay", FunctionName: "checkout", DifficultyLevel: "medium", EstimatedHours: 16},
	}
	if err := s.ReplaceFunctions(ctx, p.ID, second); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM function_modules WHERE project_id = ?`, p.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("module rows = %d, want 1 after replace", count)
	}
}

func TestSaveResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, "p", "")
	r, _ := s.CreateRequirement(ctx, p.ID, "raw")
	_ = s.UpdateProjectStatus(ctx, p.ID, StatusAnalyzing)

	res := &workflow.Result{
		Success:  true,
		Analysis: &workflow.Analysis{ProjectType: "web"},
		Functions: []workflow.FunctionModule{
			{ModuleName: "m", FunctionName: "f", DifficultyLevel: "simple", EstimatedHours: 8},
		},
		Estimation: &workflow.Estimation{TotalHours: 8},
		Cost: &workflow.Cost{
			LaborCost:        1500,
			BufferPercentage: 15,
			TotalCost:        1725,
			Breakdown: workflow.CostBreakdown{
				Development:        1500,
				ThirdPartyServices: []pricing.LineItem{},
			},
		},
	}
	if err := s.SaveResult(ctx, p.ID, r.ID, res); err != nil {
		t.Fatalf("save result: %v", err)
	}

	proj, _ := s.GetProject(ctx, p.ID)
	if proj.Status != StatusCompleted {
		t.Errorf("project status = %q, want %q", proj.Status, StatusCompleted)
	}
	req, _ := s.GetRequirement(ctx, r.ID)
	if req.Parsed == nil || req.Parsed.ProjectType != "web" {
		t.Errorf("analysis not persisted: %+v", req.Parsed)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT total_cost FROM cost_estimates WHERE project_id = ?`, p.ID).Scan(&total); err != nil {
		t.Fatalf("cost row: %v", err)
	}
	if total != 1725 {
		t.Errorf("total_cost = %d, want 1725", total)
	}
}

func TestTemplates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Miss is ("", nil).
	tpl, err := s.GetTemplate(ctx, prompt.KindRequirementAnalysis, "")
	if err != nil || tpl != "" {
		t.Errorf("empty store GetTemplate = (%q, %v)", tpl, err)
	}

	if _, err := s.SaveTemplate(ctx, prompt.KindRequirementAnalysis, "v1", "", "generic template"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveTemplate(ctx, prompt.KindRequirementAnalysis, "v1-fin", "finance", "finance template"); err != nil {
		t.Fatalf("save: %v", err)
	}

	tpl, err = s.GetTemplate(ctx, prompt.KindRequirementAnalysis, "")
	if err != nil || tpl != "generic template" {
		t.Errorf("GetTemplate = (%q, %v), want generic", tpl, err)
	}
	tpl, _ = s.GetTemplate(ctx, prompt.KindRequirementAnalysis, "finance")
	if tpl != "finance template" {
		t.Errorf("GetTemplate(finance) = %q, want the industry template", tpl)
	}
	tpl, _ = s.GetTemplate(ctx, prompt.KindRequirementAnalysis, "retail")
	if tpl != "generic template" {
		t.Errorf("GetTemplate(retail) = %q, want the generic fallback", tpl)
	}

	// Saving again swaps the active template.
	if _, err := s.SaveTemplate(ctx, prompt.KindRequirementAnalysis, "v2", "", "newer template"); err != nil {
		t.Fatalf("save v2: %v", err)
	}
	tpl, _ = s.GetTemplate(ctx, prompt.KindRequirementAnalysis, "")
	if tpl != "newer template" {
		t.Errorf("GetTemplate after v2 = %q, want newer template", tpl)
	}
}
