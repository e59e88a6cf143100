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

package workflow

import (
	"github.com/fanjia1024/presales-agent/pricing"
)

// Step is one phase of the estimation pipeline.
type Step string

const (
	StepAnalyze   Step = "analyze"
	StepBreakdown Step = "breakdown"
	StepEstimate  Step = "estimate"
	StepCalculate Step = "calculate"
	StepComplete  Step = "complete"
)

// Analysis is the structured requirement analysis produced by the Analyze stage.
type Analysis struct {
	ProjectType               string        `json:"projectType" jsonschema:"description=project category, e.g. e-commerce platform, management system, mobile app"`
	BusinessGoals             []string      `json:"businessGoals" jsonschema:"description=business goals the customer wants to reach"`
	KeyFeatures               []string      `json:"keyFeatures" jsonschema:"description=explicitly requested feature requirements"`
	TechStack                 []string      `json:"techStack" jsonschema:"description=recommended technology stack"`
	NonFunctionalRequirements NonFunctional `json:"nonFunctionalRequirements" jsonschema:"description=non-functional requirements"`
	Risks                     []string      `json:"risks" jsonschema:"description=potential project risks"`
}

// NonFunctional captures the non-functional requirement notes of an analysis.
type NonFunctional struct {
	Performance string `json:"performance,omitempty" jsonschema:"description=performance requirements such as latency and concurrency"`
	Security    string `json:"security,omitempty" jsonschema:"description=security requirements such as data protection and access control"`
	Scalability string `json:"scalability,omitempty" jsonschema:"description=future scaling requirements"`
}

// FunctionModule is one unit of work produced by the Breakdown stage.
type FunctionModule struct {
	ModuleName      string   `json:"moduleName" jsonschema:"description=module name, e.g. user management, order system"`
	FunctionName    string   `json:"functionName" jsonschema:"description=function name, e.g. user registration, order creation"`
	Description     string   `json:"description" jsonschema:"description=what the function does"`
	DifficultyLevel string   `json:"difficultyLevel" jsonschema:"enum=simple,enum=medium,enum=complex,enum=very_complex,description=difficulty level"`
	EstimatedHours  float64  `json:"estimatedHours" jsonschema:"description=estimated base hours"`
	Dependencies    []string `json:"dependencies,omitempty" jsonschema:"description=functions this one depends on"`
}

// Estimation is the effort estimation produced by the Estimate stage.
type Estimation struct {
	TotalHours      float64         `json:"totalHours" jsonschema:"description=total hours"`
	Breakdown       EffortBreakdown `json:"breakdown"`
	TeamComposition []TeamMember    `json:"teamComposition" jsonschema:"description=suggested team composition"`
}

// EffortBreakdown splits total hours by phase.
type EffortBreakdown struct {
	Development float64 `json:"development" jsonschema:"description=development hours"`
	Testing     float64 `json:"testing" jsonschema:"description=testing hours"`
	Integration float64 `json:"integration" jsonschema:"description=integration hours"`
}

// TeamMember is one role in the suggested team.
type TeamMember struct {
	Role     string  `json:"role" jsonschema:"description=role, e.g. frontend developer, backend developer, QA engineer"`
	Count    float64 `json:"count" jsonschema:"description=head count"`
	Duration float64 `json:"duration" jsonschema:"description=involvement duration in days"`
}

// Cost is the final quote produced by the Calculate stage.
type Cost struct {
	LaborCost          int64         `json:"laborCost"`
	ServiceCost        int64         `json:"serviceCost"`
	InfrastructureCost int64         `json:"infrastructureCost"`
	BufferPercentage   float64       `json:"bufferPercentage"`
	TotalCost          int64         `json:"totalCost"`
	Breakdown          CostBreakdown `json:"breakdown"`
}

// CostBreakdown splits the quote by phase plus third-party service line items.
type CostBreakdown struct {
	Development        int64              `json:"development"`
	Testing            int64              `json:"testing"`
	Deployment         int64              `json:"deployment"`
	Maintenance        int64              `json:"maintenance"`
	ThirdPartyServices []pricing.LineItem `json:"thirdPartyServices"`
}

// State is the record threaded through the pipeline. One State belongs to
// exactly one run; stages never mutate it, they return an Update that the
// orchestrator merges into a fresh copy.
type State struct {
	ProjectID     string `json:"projectId"`
	RequirementID string `json:"requirementId"`
	// RawRequirement is set at creation and immutable afterwards.
	RawRequirement string `json:"rawRequirement"`

	Analysis   *Analysis        `json:"analysis"`
	Functions  []FunctionModule `json:"functions"`
	Estimation *Estimation      `json:"estimation"`
	Cost       *Cost            `json:"cost"`

	CurrentStep Step   `json:"currentStep"`
	Err         string `json:"error,omitempty"`
	IsComplete  bool   `json:"isComplete"`
}

// NewState builds the initial state of a run.
func NewState(projectID, requirementID, rawRequirement string) *State {
	return &State{
		ProjectID:      projectID,
		RequirementID:  requirementID,
		RawRequirement: rawRequirement,
		Functions:      []FunctionModule{},
		CurrentStep:    StepAnalyze,
	}
}

// Failed reports whether the run has hit a terminal failure.
func (s *State) Failed() bool {
	return s.Err != ""
}

// Update is a partial state produced by one stage. Zero-valued fields leave
// the state untouched, except Err: a stage that runs always owns the error
// slot, so a successful stage clears a previous failure by leaving Err empty.
type Update struct {
	Analysis    *Analysis
	Functions   []FunctionModule
	Estimation  *Estimation
	Cost        *Cost
	CurrentStep Step
	Err         string
	IsComplete  bool
}

// Merge applies u onto s and returns the resulting state. The receiver is
// left untouched; per-field semantics are last write wins.
func (s *State) Merge(u *Update) *State {
	next := *s
	if u == nil {
		return &next
	}
	if u.Analysis != nil {
		next.Analysis = u.Analysis
	}
	if u.Functions != nil {
		next.Functions = u.Functions
	}
	if u.Estimation != nil {
		next.Estimation = u.Estimation
	}
	if u.Cost != nil {
		next.Cost = u.Cost
	}
	if u.CurrentStep != "" {
		next.CurrentStep = u.CurrentStep
	}
	next.Err = u.Err
	if u.IsComplete {
		next.IsComplete = true
	}
	return &next
}

// Result is what a finished run hands to the caller.
type Result struct {
	Success    bool             `json:"success"`
	Analysis   *Analysis        `json:"analysis"`
	Functions  []FunctionModule `json:"functions"`
	Estimation *Estimation      `json:"estimation"`
	Cost       *Cost            `json:"cost"`
	Error      string           `json:"error,omitempty"`
}

// ExtractResult reads the terminal state into a Result. Success requires a
// completed run with no recorded failure; partial progress never counts.
func ExtractResult(s *State) *Result {
	return &Result{
		Success:    s.IsComplete && !s.Failed(),
		Analysis:   s.Analysis,
		Functions:  s.Functions,
		Estimation: s.Estimation,
		Cost:       s.Cost,
		Error:      s.Err,
	}
}
