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

// Config holds the cost constants of the Calculate stage.
type Config struct {
	LaborCostPerDay      int64         `yaml:"labor_cost_per_day" json:"laborCostPerDay"`
	HoursPerDay          float64       `yaml:"hours_per_day" json:"hoursPerDay"`
	RiskBufferPercentage float64       `yaml:"risk_buffer_percentage" json:"riskBufferPercentage"`
	Currency             string        `yaml:"currency" json:"currency"`
	ServiceRules         []ServiceRule `yaml:"service_rules" json:"serviceRules"`
}

// DefaultConfig returns the standard constants: 1500 CNY per person-day,
// 8-hour days, a 15% risk buffer and the built-in service rules.
func DefaultConfig() Config {
	return Config{
		LaborCostPerDay:      1500,
		HoursPerDay:          8,
		RiskBufferPercentage: 15,
		Currency:             "CNY",
		ServiceRules:         DefaultServiceRules(),
	}
}
