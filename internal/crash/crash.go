/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a logged error, a crash report
// file and, when a plan is loaded, an autosaved copy of that plan.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	applog "siteplan/internal/log"
	"siteplan/internal/plan"
	"siteplan/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session describes what the process was working on when it crashed.
// Either field may be empty.
type Session struct {
	PlanPath string
	Doc      *plan.Document
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file and autosaves the session's plan.
//
// Usage: defer crash.Recover(session)
func Recover(s *Session) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(s, r, stack)
		if err != nil {
			l.Error("crash report failed", slog.Any("err", err), slog.String("path", reportPath))
		}
		if s != nil && s.Doc != nil && s.PlanPath != "" {
			if path, err := autosave(s); err != nil {
				l.Error("autosave plan failed", slog.Any("err", err))
			} else {
				l.Info("autosave plan written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// reportDir is the backups folder next to the plan, or the temp dir.
func reportDir(s *Session) string {
	if s == nil || s.PlanPath == "" {
		return os.TempDir()
	}
	dir := filepath.Join(filepath.Dir(s.PlanPath), plan.BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func autosave(s *Session) (string, error) {
	base := strings.TrimSuffix(filepath.Base(s.PlanPath), filepath.Ext(s.PlanPath))
	name := fmt.Sprintf("%s.crash-%s.json", base, time.Now().Format("20060102-150405"))
	path := filepath.Join(reportDir(s), name)
	return path, plan.Save(path, s.Doc)
}

func writeReport(s *Session, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(s), fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Siteplan Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil {
		if s.PlanPath != "" {
			_, _ = fmt.Fprintf(&buf, "Plan: %s\n", s.PlanPath)
		}
		if s.Doc != nil {
			_, _ = fmt.Fprintf(&buf, "Shapes: %d\nScale: %s (%g px/m)\n", len(s.Doc.Shapes), s.Doc.Scale.Label, s.Doc.Scale.PixelsPerMeter)
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
