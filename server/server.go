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

// Package server exposes the workflow over HTTP. Two endpoints share the
// same validation and persistence flow; they differ only in delivery:
// /api/agent/run answers once with the terminal result, /api/agent/stream
// pushes a Server-Sent Event after every stage.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/store"
	"github.com/fanjia1024/presales-agent/workflow"
)

type Server struct {
	store    *store.Store
	workflow *workflow.Workflow
	addr     string
}

func New(st *store.Store, wf *workflow.Workflow, addr string) *Server {
	return &Server{store: st, workflow: wf, addr: addr}
}

// Handler returns the route table. Split from ListenAndServe so tests can
// drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/agent/run", s.handleRun)
	mux.HandleFunc("/api/agent/stream", s.handleStream)
	return mux
}

func (s *Server) ListenAndServe() error {
	log.Info("listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

type runRequest struct {
	ProjectID     string `json:"projectId"`
	RequirementID string `json:"requirementId"`
}

// prepare runs the shared front half of both endpoints: decode and validate
// the request, load the requirement, and move the project into the analyzing
// status. On failure it has already written the HTTP response and returns nil.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) *workflow.State {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil
	}
	if req.ProjectID == "" || req.RequirementID == "" {
		writeError(w, http.StatusBadRequest, "projectId and requirementId are required")
		return nil
	}
	ctx := r.Context()
	reqm, err := s.store.GetRequirement(ctx, req.RequirementID)
	if err != nil {
		log.Error("load requirement %s: %v", req.RequirementID, err)
		writeError(w, http.StatusInternalServerError, "failed to load requirement")
		return nil
	}
	if reqm == nil || reqm.ProjectID != req.ProjectID {
		writeError(w, http.StatusNotFound, "requirement not found")
		return nil
	}
	if strings.TrimSpace(reqm.RawContent) == "" {
		writeError(w, http.StatusBadRequest, "requirement content is empty")
		return nil
	}
	if err := s.store.UpdateProjectStatus(ctx, req.ProjectID, store.StatusAnalyzing); err != nil {
		log.Error("mark project %s analyzing: %v", req.ProjectID, err)
		writeError(w, http.StatusInternalServerError, "failed to update project status")
		return nil
	}
	return workflow.NewState(req.ProjectID, req.RequirementID, reqm.RawContent)
}

// rollback returns a failed project to the draft status so the run can be
// retried. Uses the request context; if the client is already gone the row
// stays analyzing, which the next run overwrites anyway.
func (s *Server) rollback(r *http.Request, projectID string) {
	if err := s.store.UpdateProjectStatus(r.Context(), projectID, store.StatusDraft); err != nil {
		log.Error("roll back project %s to draft: %v", projectID, err)
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	st := s.prepare(w, r)
	if st == nil {
		return
	}
	res := s.workflow.Run(r.Context(), st)
	if !res.Success {
		s.rollback(r, st.ProjectID)
		writeError(w, http.StatusInternalServerError, res.Error)
		return
	}
	if err := s.store.SaveResult(r.Context(), st.ProjectID, st.RequirementID, res); err != nil {
		log.Error("save result for project %s: %v", st.ProjectID, err)
		s.rollback(r, st.ProjectID)
		writeError(w, http.StatusInternalServerError, "failed to persist result")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    res,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
