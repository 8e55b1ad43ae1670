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

// Package logging builds the slog logger used by the sirseer-board CLI:
// tinted output on stderr and, when configured, a rotating plain-text log
// file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// Level is debug, info, warn or error. Anything else means info.
	Level string

	// File enables a rotating log file at this path.
	File string

	// Stderr replaces os.Stderr as the console destination.
	Stderr io.Writer
}

var (
	mu         sync.Mutex
	fileWriter *lumberjack.Logger
)

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup creates the logger. A previously opened log file is closed first.
func Setup(opts Options) (*slog.Logger, error) {
	lvl := ParseLevel(opts.Level)

	out := opts.Stderr
	if out == nil {
		out = os.Stderr
	}
	noColor := os.Getenv("NO_COLOR") != ""
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	stderrHandler := tint.NewHandler(out, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})

	if err := Close(); err != nil {
		return nil, err
	}
	if opts.File == "" {
		return slog.New(stderrHandler), nil
	}

	if dir := filepath.Dir(opts.File); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	mu.Lock()
	fileWriter = w
	mu.Unlock()

	fileHandler := tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	})

	return slog.New(&MultiHandler{handlers: []slog.Handler{fileHandler, stderrHandler}}), nil
}

// Close closes the log file opened by Setup, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// MultiHandler sends every record to all of its handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
