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

	"github.com/google/uuid"

	"github.com/fanjia1024/presales-agent/prompt"
)

var _ prompt.Source = (*Store)(nil)

// GetTemplate implements prompt.Source: the active template for the kind,
// preferring an industry-specific one. A miss is ("", nil) so the caller
// falls back to the built-in default.
func (s *Store) GetTemplate(ctx context.Context, kind prompt.Kind, industry string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT prompt_content FROM prompt_templates
		 WHERE template_type = ? AND is_active = 1 AND (industry = ? OR industry IS NULL OR industry = '')
		 ORDER BY CASE WHEN industry = ? THEN 0 ELSE 1 END, created_at DESC
		 LIMIT 1`,
		string(kind), industry, industry).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// SaveTemplate inserts a template and makes it the active one for its
// type/industry pair.
func (s *Store) SaveTemplate(ctx context.Context, kind prompt.Kind, name, industry, content string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE prompt_templates SET is_active = 0 WHERE template_type = ? AND ifnull(industry, '') = ifnull(?, '')`,
		string(kind), industry); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prompt_templates (id, template_type, template_name, industry, prompt_content, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		id, string(kind), name, industry, content, now()); err != nil {
		return "", err
	}
	return id, tx.Commit()
}
