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

package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Level controls which messages are emitted. Lower levels include higher ones.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

var (
	level  atomic.Int32
	output atomic.Value // io.Writer
)

func init() {
	level.Store(int32(InfoLevel))
	output.Store(io.Writer(os.Stderr))
}

// SetLogLevel sets the global log level.
func SetLogLevel(l Level) {
	level.Store(int32(l))
}

// SetOutput redirects log output. Default is stderr.
func SetOutput(w io.Writer) {
	output.Store(w)
}

func logf(l Level, tag string, format string, args ...interface{}) {
	if int32(l) < level.Load() {
		return
	}
	w := output.Load().(io.Writer)
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(w, "%s %s %s\n", ts, tag, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) {
	logf(DebugLevel, "[DEBUG]", format, args...)
}

func Info(format string, args ...interface{}) {
	logf(InfoLevel, "[INFO]", format, args...)
}

func Error(format string, args ...interface{}) {
	logf(ErrorLevel, "[ERROR]", format, args...)
}
