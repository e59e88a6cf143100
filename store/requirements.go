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
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fanjia1024/presales-agent/workflow"
)

// Requirement is the raw requirement text of a project plus the structured
// analysis once a workflow run has produced one.
type Requirement struct {
	ID         string             `json:"id"`
	ProjectID  string             `json:"projectId"`
	RawContent string             `json:"rawContent"`
	Parsed     *workflow.Analysis `json:"parsed,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// CreateRequirement inserts a requirement under a project.
func (s *Store) CreateRequirement(ctx context.Context, projectID, rawContent string) (*Requirement, error) {
	r := &Requirement{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		RawContent: rawContent,
		CreatedAt:  now(),
		UpdatedAt:  now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requirements (id, project_id, raw_content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.RawContent, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRequirement returns the requirement or nil when it does not exist.
func (s *Store) GetRequirement(ctx context.Context, id string) (*Requirement, error) {
	var r Requirement
	var parsed sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, raw_content, parsed_content, created_at, updated_at FROM requirements WHERE id = ?`, id).
		Scan(&r.ID, &r.ProjectID, &r.RawContent, &parsed, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if parsed.Valid && parsed.String != "" {
		var a workflow.Analysis
		if err := json.Unmarshal([]byte(parsed.String), &a); err == nil {
			r.Parsed = &a
		}
	}
	return &r, nil
}

// UpdateRequirementAnalysis stores the structured analysis on the requirement.
func (s *Store) UpdateRequirementAnalysis(ctx context.Context, id string, analysis *workflow.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE requirements SET parsed_content = ?, updated_at = ? WHERE id = ?`, string(data), now(), id)
	return err
}
