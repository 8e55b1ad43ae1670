// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupStderrOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn", Stderr: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	logger.Warn("warning threshold reached", slog.Int("warnings", 15))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "warning threshold reached") || !strings.Contains(out, "warnings=15") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes written to a non-terminal")
	}
}

func TestSetupWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "board.log")

	logger, err := Setup(Options{Level: "debug", File: path, Stderr: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.With(slog.String("repo", "octo/board")).Debug("fetching page", slog.Int("size", 4))
	if err := Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	for _, out := range []string{string(data), buf.String()} {
		if !strings.Contains(out, "fetching page") || !strings.Contains(out, "repo=octo/board") {
			t.Errorf("record missing from output %q", out)
		}
	}

	// Closing twice is harmless.
	if err := Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
