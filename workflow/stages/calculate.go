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

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/pricing"
	"github.com/fanjia1024/presales-agent/workflow"
)

var _ workflow.Stage = (*Calculate)(nil)

// Calculate derives the final quote from the effort estimation. No model
// call is involved; given the same estimation and config the result is
// always the same.
type Calculate struct {
	Pricing pricing.Config
}

// Name implements workflow.Stage.
func (s *Calculate) Name() string { return "calculate" }

// Run implements workflow.Stage.
func (s *Calculate) Run(ctx context.Context, st *workflow.State) *workflow.Update {
	if st.Estimation == nil {
		return &workflow.Update{Err: "missing effort estimation, cannot calculate cost"}
	}
	est := st.Estimation
	if len(est.TeamComposition) == 0 {
		return &workflow.Update{Err: "cost calculation failed: empty team composition"}
	}

	cfg := s.Pricing
	if cfg.LaborCostPerDay == 0 && cfg.HoursPerDay == 0 {
		cfg = pricing.DefaultConfig()
	}

	workDays, err := pricing.HoursToWorkDays(est.TotalHours, cfg.HoursPerDay)
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}
	laborCost := int64(workDays) * cfg.LaborCostPerDay

	phaseCost := func(hours float64) (int64, error) {
		days, err := pricing.HoursToWorkDays(hours, cfg.HoursPerDay)
		if err != nil {
			return 0, err
		}
		return int64(days) * cfg.LaborCostPerDay, nil
	}
	developmentCost, err := phaseCost(est.Breakdown.Development)
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}
	testingCost, err := phaseCost(est.Breakdown.Testing)
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}
	integrationCost, err := phaseCost(est.Breakdown.Integration)
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}

	var teamSize, totalDuration float64
	for _, m := range est.TeamComposition {
		teamSize += m.Count
		totalDuration += m.Duration
	}
	avgDuration := totalDuration / float64(len(est.TeamComposition))

	items, err := pricing.EvaluateServiceRules(cfg.ServiceRules, pricing.RuleInputs{
		TeamSize:    teamSize,
		AvgDuration: avgDuration,
		TotalHours:  est.TotalHours,
	})
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}
	if items == nil {
		items = []pricing.LineItem{}
	}
	var serviceCost int64
	for _, it := range items {
		serviceCost += it.Cost
	}

	// Reserved for future extension.
	var infrastructureCost int64 = 0

	comp, err := pricing.ComposeCost(laborCost, serviceCost, infrastructureCost, cfg.RiskBufferPercentage)
	if err != nil {
		return &workflow.Update{Err: "cost calculation failed: " + err.Error()}
	}

	cost := &workflow.Cost{
		LaborCost:          laborCost,
		ServiceCost:        serviceCost,
		InfrastructureCost: infrastructureCost,
		BufferPercentage:   cfg.RiskBufferPercentage,
		TotalCost:          comp.TotalCost,
		Breakdown: workflow.CostBreakdown{
			Development: developmentCost,
			Testing:     testingCost,
			// Integration cost doubles as the deployment line; maintenance
			// is quoted separately, not here.
			Deployment:         integrationCost,
			Maintenance:        0,
			ThirdPartyServices: items,
		},
	}

	log.Info("cost calculated: labor=%d service=%d buffer=%d total=%d",
		laborCost, serviceCost, comp.BufferAmount, comp.TotalCost)

	return &workflow.Update{
		Cost:        cost,
		CurrentStep: workflow.StepComplete,
		IsComplete:  true,
	}
}
