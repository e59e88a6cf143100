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
	"context"

	"github.com/fanjia1024/presales-agent/internal/log"
)

// Stage is one unit of the pipeline. Run never returns a Go error: failures
// travel as data in the Update (Err set, CurrentStep left as is) so the
// orchestrator can halt without translating anything.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *State) *Update
}

// Workflow drives the four stages over a shared state:
//
//	analyze → breakdown → estimate → calculate → complete
//
// Every node also has an implicit exit edge taken when the merged state
// carries an error. The chain is fixed; routing dispatches on CurrentStep.
type Workflow struct {
	stages map[Step]Stage
}

// New builds a workflow from its stages. Each stage handles the step matching
// its position in the chain; the set normally comes from stages.Default.
func New(analyze, breakdown, estimate, calculate Stage) *Workflow {
	return &Workflow{
		stages: map[Step]Stage{
			StepAnalyze:   analyze,
			StepBreakdown: breakdown,
			StepEstimate:  estimate,
			StepCalculate: calculate,
		},
	}
}

// Snapshot is the progress view emitted after each stage merge in streaming mode.
type Snapshot struct {
	Step  Step       `json:"step"`
	State *StateView `json:"state"`
}

// StateView is the subset of State exposed to streaming consumers.
type StateView struct {
	CurrentStep Step             `json:"currentStep"`
	Analysis    *Analysis        `json:"analysis"`
	Functions   []FunctionModule `json:"functions"`
	Estimation  *Estimation      `json:"estimation"`
	Cost        *Cost            `json:"cost"`
	Err         string           `json:"error,omitempty"`
	IsComplete  bool             `json:"isComplete"`
}

func viewOf(s *State) *StateView {
	return &StateView{
		CurrentStep: s.CurrentStep,
		Analysis:    s.Analysis,
		Functions:   s.Functions,
		Estimation:  s.Estimation,
		Cost:        s.Cost,
		Err:         s.Err,
		IsComplete:  s.IsComplete,
	}
}

// Run executes the pipeline to completion and extracts the terminal result.
// It stops at the first stage whose merged state carries an error; no stage
// is retried and no later stage runs. A context cancellation stops further
// dispatch and surfaces as a failed result.
func (w *Workflow) Run(ctx context.Context, initial *State) *Result {
	final := w.drive(ctx, initial, nil)
	return ExtractResult(final)
}

// Stream executes the pipeline like Run but yields a Snapshot after every
// stage merge. The returned channel is unbuffered: the next stage does not
// start until the consumer has received the previous snapshot, which is the
// backpressure contract. The channel closes after the terminal snapshot.
func (w *Workflow) Stream(ctx context.Context, initial *State) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		w.drive(ctx, initial, func(st *State) bool {
			select {
			case out <- Snapshot{Step: st.CurrentStep, State: viewOf(st)}:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return out
}

// drive is the shared state machine loop. emit, when non-nil, is called after
// each merge; returning false aborts the run (consumer gone).
func (w *Workflow) drive(ctx context.Context, st *State, emit func(*State) bool) *State {
	for !st.Failed() && st.CurrentStep != StepComplete {
		stage, ok := w.stages[st.CurrentStep]
		if !ok || stage == nil {
			log.Error("workflow %s/%s: no stage for step %q", st.ProjectID, st.RequirementID, st.CurrentStep)
			return st.Merge(&Update{Err: "no stage registered for step " + string(st.CurrentStep)})
		}
		if err := ctx.Err(); err != nil {
			return st.Merge(&Update{Err: "workflow canceled: " + err.Error()})
		}
		log.Debug("workflow %s/%s: running stage %s", st.ProjectID, st.RequirementID, stage.Name())
		upd := stage.Run(ctx, st)
		st = st.Merge(upd)
		if emit != nil && !emit(st) {
			return st
		}
		if st.Failed() {
			log.Info("workflow %s/%s: stage %s failed: %s", st.ProjectID, st.RequirementID, stage.Name(), st.Err)
			return st
		}
	}
	return st
}
