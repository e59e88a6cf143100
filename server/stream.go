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
	"net/http"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/internal/utils"
	"github.com/fanjia1024/presales-agent/workflow"
)

// handleStream runs the workflow in streaming mode over Server-Sent Events.
// Event order is: one "progress" per stage merge, then exactly one terminal
// "complete" or "error", then the stream closes. The unbuffered workflow
// channel means a slow client throttles the pipeline instead of piling up
// snapshots in memory.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	st := s.prepare(w, r)
	if st == nil {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.rollback(r, st.ProjectID)
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last workflow.Snapshot
	for snap := range s.workflow.Stream(r.Context(), st) {
		last = snap
		writeEvent(w, flusher, "progress", snap)
	}

	if last.State == nil || last.State.Err != "" || !last.State.IsComplete {
		s.rollback(r, st.ProjectID)
		msg := "workflow produced no result"
		if last.State != nil && last.State.Err != "" {
			msg = last.State.Err
		}
		writeEvent(w, flusher, "error", map[string]any{"error": msg})
		return
	}

	res := &workflow.Result{
		Success:    true,
		Analysis:   last.State.Analysis,
		Functions:  last.State.Functions,
		Estimation: last.State.Estimation,
		Cost:       last.State.Cost,
	}
	if err := s.store.SaveResult(r.Context(), st.ProjectID, st.RequirementID, res); err != nil {
		log.Error("save result for project %s: %v", st.ProjectID, err)
		s.rollback(r, st.ProjectID)
		writeEvent(w, flusher, "error", map[string]any{"error": "failed to persist result"})
		return
	}
	writeEvent(w, flusher, "complete", map[string]any{"success": true, "data": res})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := utils.MarshalJSONBytes(payload)
	if err != nil {
		log.Error("encode %s event: %v", event, err)
		return
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		log.Error("write %s event: %v", event, err)
		return
	}
	flusher.Flush()
}
