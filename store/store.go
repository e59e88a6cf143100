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

// Package store persists projects, requirements and estimation results in
// SQLite. The engine never touches it; only the boundary adapters do.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Project status values.
const (
	StatusDraft     = "draft"
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if missing) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}
	// SQLite works best with a single connection for writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			industry TEXT,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS requirements (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			raw_content TEXT NOT NULL,
			parsed_content TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS function_modules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			module_name TEXT NOT NULL,
			function_name TEXT NOT NULL,
			description TEXT,
			difficulty_level TEXT NOT NULL,
			estimated_hours REAL NOT NULL,
			dependencies_json TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS cost_estimates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			labor_cost INTEGER NOT NULL,
			service_cost INTEGER NOT NULL,
			infrastructure_cost INTEGER NOT NULL,
			buffer_percentage REAL NOT NULL,
			total_cost INTEGER NOT NULL,
			breakdown_json TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS prompt_templates (
			id TEXT PRIMARY KEY,
			template_type TEXT NOT NULL,
			template_name TEXT NOT NULL,
			industry TEXT,
			prompt_content TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_requirements_project ON requirements(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_function_modules_project ON function_modules(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cost_estimates_project ON cost_estimates(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prompt_templates_type ON prompt_templates(template_type, is_active)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
