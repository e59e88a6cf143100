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

	"github.com/fanjia1024/presales-agent/workflow"
)

// ReplaceFunctions swaps the project's function modules for fns
// (replace-all semantics, transactional).
func (s *Store) ReplaceFunctions(ctx context.Context, projectID string, fns []workflow.FunctionModule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := replaceFunctionsTx(ctx, tx, projectID, fns); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceFunctionsTx(ctx context.Context, tx *sql.Tx, projectID string, fns []workflow.FunctionModule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM function_modules WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	for _, fn := range fns {
		var deps interface{}
		if len(fn.Dependencies) > 0 {
			data, err := json.Marshal(fn.Dependencies)
			if err != nil {
				return err
			}
			deps = string(data)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO function_modules (project_id, module_name, function_name, description, difficulty_level, estimated_hours, dependencies_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, fn.ModuleName, fn.FunctionName, fn.Description, fn.DifficultyLevel, fn.EstimatedHours, deps, now())
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCost swaps the project's cost estimate for cost
// (replace-all semantics, transactional).
func (s *Store) ReplaceCost(ctx context.Context, projectID string, cost *workflow.Cost) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := replaceCostTx(ctx, tx, projectID, cost); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceCostTx(ctx context.Context, tx *sql.Tx, projectID string, cost *workflow.Cost) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cost_estimates WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	breakdown, err := json.Marshal(cost.Breakdown)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO cost_estimates (project_id, labor_cost, service_cost, infrastructure_cost, buffer_percentage, total_cost, breakdown_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, cost.LaborCost, cost.ServiceCost, cost.InfrastructureCost, cost.BufferPercentage, cost.TotalCost, string(breakdown), now())
	return err
}

// SaveResult persists a successful workflow result against the owning
// project in one transaction: analysis onto the requirement, functions and
// cost replace-all, project status to completed.
func (s *Store) SaveResult(ctx context.Context, projectID, requirementID string, res *workflow.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if res.Analysis != nil {
		data, err := json.Marshal(res.Analysis)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE requirements SET parsed_content = ?, updated_at = ? WHERE id = ?`,
			string(data), now(), requirementID); err != nil {
			return err
		}
	}
	if len(res.Functions) > 0 {
		if err := replaceFunctionsTx(ctx, tx, projectID, res.Functions); err != nil {
			return err
		}
	}
	if res.Cost != nil {
		if err := replaceCostTx(ctx, tx, projectID, res.Cost); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, now(), projectID); err != nil {
		return err
	}
	return tx.Commit()
}
