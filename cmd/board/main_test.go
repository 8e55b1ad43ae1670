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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-board/internal/config"
	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/github"
)

type repoInfoStub struct {
	private bool
	err     error
}

func (r repoInfoStub) GetRepositoryInfo(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &github.RepositoryInfo{Owner: owner, Name: repo, IsPrivate: r.private}, nil
}

// newTestApp returns an app with configuration already loaded, output
// under a temporary directory and client constructors returning client.
func newTestApp(t *testing.T, client github.Client) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Sync.SleepTime = 0
	cfg.Output.Dir = dir
	cfg.Output.StateDir = filepath.Join(dir, "state")

	var stdout bytes.Buffer
	a := &app{
		token:  "test-token",
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		stdout: &stdout,
		stderr: &bytes.Buffer{},
		newClient: func(token, endpoint string) github.Client {
			return client
		},
		newRepoInfo: func(token, baseURL string) (github.RepositoryInfoClient, error) {
			return repoInfoStub{private: true}, nil
		},
	}
	return a, &stdout
}

// isolateEnv keeps the developer's config file and environment out of
// tests that run the root command.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	for _, key := range []string{
		"GITHUB_TOKEN", "REPOSITORIES", "PAGE_THRESHOLD", "BOARD_PER_PAGE",
		"BOARD_EARLIEST_DATE", "BOARD_PR_EARLIEST_DATE", "BOARD_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("BOARD_SLEEP_TIME", "0")
	return home
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"general", errors.New("boom"), 1},
		{"invalid token", fmt.Errorf("react: %w", boarderrors.ErrInvalidToken), 2},
		{"repo not found", fmt.Errorf("sync: %w", boarderrors.ErrRepoNotFound), 2},
		{"rate limit", boarderrors.ErrRateLimit, 2},
		{"permission denied", fmt.Errorf("remove reaction: %w", boarderrors.ErrPermissionDenied), 2},
		{"network", fmt.Errorf("page: %w", boarderrors.ErrNetworkFailure), 3},
		{"rest 401", fmt.Errorf("get repository: %w", &github.StatusError{StatusCode: 401}), 2},
		{"rest 404", &github.StatusError{StatusCode: 404, Body: "Not Found"}, 2},
		{"rest 503", &github.StatusError{StatusCode: 503}, 3},
		{"rest 500", &github.StatusError{StatusCode: 500}, 1},
		{"no repository", fmt.Errorf("nothing to sync: %w", boarderrors.ErrNoRepository), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.want {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "from-env")
	t.Setenv("BOARD_TOKEN", "from-custom-env")

	tests := []struct {
		name     string
		flag     string
		tokenEnv string
		want     string
	}{
		{"flag wins", "from-flag", "", "from-flag"},
		{"default env", "", "GITHUB_TOKEN", "from-env"},
		{"configured env", "", "BOARD_TOKEN", "from-custom-env"},
		{"empty token env falls back", "", "", "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.GitHub.TokenEnv = tt.tokenEnv
			a := &app{token: tt.flag, cfg: cfg}
			if got := a.resolveToken(); got != tt.want {
				t.Errorf("resolveToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootCommandSyncFlags(t *testing.T) {
	home := isolateEnv(t)
	out := filepath.Join(home, "board")

	client := github.NewMockClient(
		github.WithIssuePages(&github.IssuePage{
			Nodes: github.GenerateIssues(1, 2, time.Now().UTC().Truncate(time.Second)),
		}),
	)

	a := newApp()
	a.stdout = &bytes.Buffer{}
	a.stderr = &bytes.Buffer{}
	a.newClient = func(token, endpoint string) github.Client { return client }
	a.newRepoInfo = func(token, baseURL string) (github.RepositoryInfoClient, error) {
		return repoInfoStub{}, nil
	}

	cmd := newRootCommand(a)
	cmd.SetArgs([]string{
		"sync", "octo/board",
		"--per-page", "50",
		"--max-pages", "2",
		"--output-dir", out,
		"--token", "t",
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if a.cfg.Sync.PerPage != 50 {
		t.Errorf("PerPage = %d, want 50", a.cfg.Sync.PerPage)
	}
	if a.cfg.Sync.PageThreshold != 2 {
		t.Errorf("PageThreshold = %d, want 2", a.cfg.Sync.PageThreshold)
	}
	if a.cfg.Output.Dir != out {
		t.Errorf("Output.Dir = %q, want %q", a.cfg.Output.Dir, out)
	}
	if got := client.CallCount(github.MethodIssues); got != 1 {
		t.Errorf("issue requests = %d, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(out, "issues.json")); err != nil {
		t.Errorf("snapshot missing: %v", err)
	}
}

func TestRootCommandRejectsInvalidFlags(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"per page too large", []string{"sync", "octo/board", "--per-page", "101"}},
		{"bad repository", []string{"sync", "octo"}},
		{"max pages below -1", []string{"sync", "octo/board", "--max-pages", "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp()
			a.stdout = &bytes.Buffer{}
			a.stderr = &bytes.Buffer{}
			a.newClient = func(token, endpoint string) github.Client {
				t.Fatal("client must not be created")
				return nil
			}

			cmd := newRootCommand(a)
			cmd.SetArgs(tt.args)
			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Fatal("Execute() succeeded, want error")
			}
		})
	}
}
