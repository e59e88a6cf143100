/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package prompt

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/internal/utils"
)

var _ Source = (*DirSource)(nil)

// DirSource serves templates from a directory of markdown files named
// <kind>.md or <kind>_<industry>.md. Files are cached after first read; the
// directory is watched so edits take effect without a restart.
type DirSource struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// NewDirSource creates a DirSource over dir. The watch is best effort: when
// the watcher cannot be installed the source still works, just without
// invalidation.
func NewDirSource(dir string) *DirSource {
	s := &DirSource{
		dir:   dir,
		cache: make(map[string]string),
	}
	err := utils.WatchDir(dir, func(op fsnotify.Op, file string) {
		if op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
			return
		}
		name := filepath.Base(file)
		s.mu.Lock()
		delete(s.cache, name)
		s.mu.Unlock()
		log.Debug("template %s invalidated", name)
	})
	if err != nil {
		log.Info("watch template dir %s: %v", dir, err)
	}
	return s
}

// GetTemplate implements Source. Industry-specific files win over the plain
// kind file; a missing file is a miss, not an error.
func (s *DirSource) GetTemplate(ctx context.Context, kind Kind, industry string) (string, error) {
	if industry != "" {
		if tpl, err := s.read(string(kind) + "_" + industry + ".md"); err != nil {
			return "", err
		} else if tpl != "" {
			return tpl, nil
		}
	}
	return s.read(string(kind) + ".md")
}

func (s *DirSource) read(name string) (string, error) {
	s.mu.RLock()
	tpl, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return tpl, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.cache[name] = string(data)
	s.mu.Unlock()
	return string(data), nil
}
