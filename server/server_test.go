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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fanjia1024/presales-agent/store"
	"github.com/fanjia1024/presales-agent/workflow"
)

type stubStage struct {
	name   string
	update *workflow.Update
}

func (s *stubStage) Name() string { return s.name }
func (s *stubStage) Run(ctx context.Context, st *workflow.State) *workflow.Update {
	return s.update
}

func succeedingWorkflow() *workflow.Workflow {
	return workflow.New(
		&stubStage{"analyze", &workflow.Update{
			Analysis:    &workflow.Analysis{ProjectType: "web"},
			CurrentStep: workflow.StepBreakdown,
		}},
		&stubStage{"breakdown", &workflow.Update{
			Functions:   []workflow.FunctionModule{{ModuleName: "auth", FunctionName: "login", DifficultyLevel: "simple", EstimatedHours: 8}},
			CurrentStep: workflow.StepEstimate,
		}},
		&stubStage{"estimate", &workflow.Update{
			Estimation:  &workflow.Estimation{TotalHours: 8, TeamComposition: []workflow.TeamMember{{Role: "dev", Count: 1, Duration: 1}}},
			CurrentStep: workflow.StepCalculate,
		}},
		&stubStage{"calculate", &workflow.Update{
			Cost:        &workflow.Cost{LaborCost: 1500, TotalCost: 1725},
			CurrentStep: workflow.StepComplete,
			IsComplete:  true,
		}},
	)
}

func failingWorkflow() *workflow.Workflow {
	return workflow.New(
		&stubStage{"analyze", &workflow.Update{Err: "analysis failed: model unreachable"}},
		&stubStage{"breakdown", nil},
		&stubStage{"estimate", nil},
		&stubStage{"calculate", nil},
	)
}

// newTestServer seeds a store with one project and one requirement.
func newTestServer(t *testing.T, wf *workflow.Workflow) (*Server, *store.Store, *store.Project, *store.Requirement) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	p, err := st.CreateProject(ctx, "p", "")
	if err != nil {
		t.Fatal(err)
	}
	r, err := st.CreateRequirement(ctx, p.ID, "需要一个商城")
	if err != nil {
		t.Fatal(err)
	}
	return New(st, wf, ":0"), st, p, r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRunValidation(t *testing.T) {
	srv, _, p, r := newTestServer(t, succeedingWorkflow())
	h := srv.Handler()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing ids", `{}`, http.StatusBadRequest},
		{"missing requirement id", `{"projectId":"` + p.ID + `"}`, http.StatusBadRequest},
		{"unknown requirement", `{"projectId":"` + p.ID + `","requirementId":"nope"}`, http.StatusNotFound},
		{"requirement of another project", `{"projectId":"other","requirementId":"` + r.ID + `"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := postJSON(t, h, "/api/agent/run", tt.body)
		if rec.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agent/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestRunBlankRequirement(t *testing.T) {
	srv, st, p, _ := newTestServer(t, succeedingWorkflow())
	blank, err := st.CreateRequirement(context.Background(), p.ID, "   \n ")
	if err != nil {
		t.Fatal(err)
	}
	rec := postJSON(t, srv.Handler(), "/api/agent/run",
		`{"projectId":"`+p.ID+`","requirementId":"`+blank.ID+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRunSuccess(t *testing.T) {
	srv, st, p, r := newTestServer(t, succeedingWorkflow())
	rec := postJSON(t, srv.Handler(), "/api/agent/run",
		`{"projectId":"`+p.ID+`","requirementId":"`+r.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool             `json:"success"`
		Data    *workflow.Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data == nil || body.Data.Cost.TotalCost != 1725 {
		t.Errorf("body = %+v", body)
	}

	proj, _ := st.GetProject(context.Background(), p.ID)
	if proj.Status != store.StatusCompleted {
		t.Errorf("project status = %q, want %q", proj.Status, store.StatusCompleted)
	}
	req, _ := st.GetRequirement(context.Background(), r.ID)
	if req.Parsed == nil || req.Parsed.ProjectType != "web" {
		t.Errorf("analysis not persisted: %+v", req.Parsed)
	}
}

func TestRunFailureRollsBack(t *testing.T) {
	srv, st, p, r := newTestServer(t, failingWorkflow())
	rec := postJSON(t, srv.Handler(), "/api/agent/run",
		`{"projectId":"`+p.ID+`","requirementId":"`+r.ID+`"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "analysis failed: model unreachable" {
		t.Errorf("error = %v", body["error"])
	}
	proj, _ := st.GetProject(context.Background(), p.ID)
	if proj.Status != store.StatusDraft {
		t.Errorf("project status = %q, want rollback to %q", proj.Status, store.StatusDraft)
	}
}

// parseSSE splits a response body into (event, data) pairs.
func parseSSE(body string) [][2]string {
	var events [][2]string
	for _, block := range strings.Split(body, "\n\n") {
		var ev, data string
		for _, line := range strings.Split(block, "\n") {
			if strings.HasPrefix(line, "event: ") {
				ev = strings.TrimPrefix(line, "event: ")
			}
			if strings.HasPrefix(line, "data: ") {
				data = strings.TrimPrefix(line, "data: ")
			}
		}
		if ev != "" {
			events = append(events, [2]string{ev, data})
		}
	}
	return events
}

func TestStreamSuccess(t *testing.T) {
	srv, st, p, r := newTestServer(t, succeedingWorkflow())
	rec := postJSON(t, srv.Handler(), "/api/agent/stream",
		`{"projectId":"`+p.ID+`","requirementId":"`+r.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	events := parseSSE(rec.Body.String())
	if len(events) != 5 {
		t.Fatalf("got %d events, want 4 progress + 1 complete:\n%s", len(events), rec.Body.String())
	}
	for i := 0; i < 4; i++ {
		if events[i][0] != "progress" {
			t.Errorf("event %d = %q, want progress", i, events[i][0])
		}
	}
	if events[4][0] != "complete" {
		t.Fatalf("terminal event = %q, want complete", events[4][0])
	}

	var last workflow.Snapshot
	if err := json.Unmarshal([]byte(events[3][1]), &last); err != nil {
		t.Fatalf("decode final progress: %v", err)
	}
	if !last.State.IsComplete || last.State.Cost.TotalCost != 1725 {
		t.Errorf("final progress state = %+v", last.State)
	}

	proj, _ := st.GetProject(context.Background(), p.ID)
	if proj.Status != store.StatusCompleted {
		t.Errorf("project status = %q, want %q", proj.Status, store.StatusCompleted)
	}
}

func TestStreamFailure(t *testing.T) {
	srv, st, p, r := newTestServer(t, failingWorkflow())
	rec := postJSON(t, srv.Handler(), "/api/agent/stream",
		`{"projectId":"`+p.ID+`","requirementId":"`+r.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (SSE failures travel in-band)", rec.Code)
	}

	events := parseSSE(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 1 progress + 1 error:\n%s", len(events), rec.Body.String())
	}
	if events[0][0] != "progress" || events[1][0] != "error" {
		t.Errorf("event order = %v", events)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(events[1][1]), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["error"] != "analysis failed: model unreachable" {
		t.Errorf("error payload = %v", payload)
	}

	proj, _ := st.GetProject(context.Background(), p.ID)
	if proj.Status != store.StatusDraft {
		t.Errorf("project status = %q, want rollback to %q", proj.Status, store.StatusDraft)
	}
}
