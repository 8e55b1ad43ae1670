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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-board/internal/config"
	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/giterror"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/logging"
	"github.com/sirseerhq/sirseer-board/pkg/version"
)

// app carries what every command needs once the root command has loaded
// configuration. The client constructors are swapped out in tests.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	token      string

	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	newClient   func(token, endpoint string) github.Client
	newRepoInfo func(token, baseURL string) (github.RepositoryInfoClient, error)
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.New(slog.DiscardHandler),
		newClient: func(token, endpoint string) github.Client {
			return github.NewGraphQLClient(token, endpoint)
		},
		newRepoInfo: func(token, baseURL string) (github.RepositoryInfoClient, error) {
			return github.NewRESTClient(token, baseURL)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	_ = logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sirseer-board",
		Short: "Synchronize GitHub issues and pull requests for a kanban board",
		Long: `SirSeer Board keeps a local snapshot of the issues, pull requests,
labels and review comment reactions of a set of GitHub repositories.
The snapshot is what the board renders; the react command changes
reactions on GitHub directly.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: .sirseer-board.yaml or ~/.sirseer/board.yaml)")
	flags.StringVar(&a.token, "token", "", "GitHub personal access token (overrides the token environment variable)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFile, "log-file", "", "Also write logs to this file, rotated by size")

	rootCmd.AddCommand(newSyncCommand(a))
	rootCmd.AddCommand(newReactCommand(a))
	rootCmd.AddCommand(newLabelsCommand(a))
	rootCmd.AddCommand(newReactionsCommand(a))

	return rootCmd
}

// load reads configuration and sets up logging. Flags override the
// environment, which overrides the config file.
func (a *app) load() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Log.File = a.logFile
	}

	logger, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: a.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// resolveToken returns the token from the flag or the configured
// environment variable.
func (a *app) resolveToken() string {
	if a.token != "" {
		return a.token
	}
	env := "GITHUB_TOKEN"
	if a.cfg != nil && a.cfg.GitHub.TokenEnv != "" {
		env = a.cfg.GitHub.TokenEnv
	}
	return os.Getenv(env)
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, boarderrors.ErrInvalidToken) ||
		errors.Is(err, boarderrors.ErrRepoNotFound) ||
		errors.Is(err, boarderrors.ErrRateLimit) ||
		errors.Is(err, boarderrors.ErrPermissionDenied) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, boarderrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	// REST errors keep their HTTP status instead of a sentinel.
	inspector := giterror.NewErrorChainInspector(giterror.NewInspector())
	var status *github.StatusError
	if errors.As(err, &status) {
		switch {
		case inspector.IsAuthError(err), inspector.IsNotFoundError(err),
			inspector.IsRateLimitError(err), inspector.IsPermissionError(err):
			return 2
		case inspector.IsNetworkError(err):
			return 3
		}
	}

	return 1 // General error
}
