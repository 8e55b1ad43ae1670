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
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/sirseer-board/internal/config"
	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/metadata"
	"github.com/sirseerhq/sirseer-board/internal/output"
	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
	"github.com/sirseerhq/sirseer-board/internal/snapshot"
	"github.com/sirseerhq/sirseer-board/internal/state"
	"github.com/sirseerhq/sirseer-board/internal/store"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
	"github.com/sirseerhq/sirseer-board/pkg/version"
)

type syncFlags struct {
	perPage     int
	maxPages    int
	incremental bool
	database    string
	ndjson      string
	outputDir   string
}

func newSyncCommand(a *app) *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync [owner/repo ...]",
		Short: "Fetch issues, pull requests and labels into the board snapshot",
		Long: `Fetch issues, pull requests and labels of each repository and write the
board snapshot plus a snapshot of the records updated recently.

Repositories come from the arguments, or from the repositories list in the
config file, or from REPOSITORIES=owner:name1|name2.

With --incremental the previous snapshot is kept and only records updated
since the last complete sync of each repository are fetched again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, a.cfg, args); err != nil {
				return err
			}
			repos, err := a.cfg.Repos()
			if err != nil {
				return err
			}
			return a.runSync(cmd.Context(), repos, f.incremental, f.ndjson)
		},
	}

	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "Page size slow start grows to (1-100)")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "Stop each list after this many pages, 0 for no limit")
	cmd.Flags().BoolVar(&f.incremental, "incremental", false, "Only fetch records updated since the last complete sync")
	cmd.Flags().StringVar(&f.database, "db", "", "Also upsert records into this SQLite database")
	cmd.Flags().StringVar(&f.ndjson, "ndjson", "", "Also stream records as NDJSON to this file, - for stdout")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for the snapshot and sync metadata")

	return cmd
}

// apply lays the flags that were set over the loaded configuration and
// validates the result.
func (f *syncFlags) apply(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Repositories = args
	}
	if cmd.Flags().Changed("per-page") {
		cfg.Sync.PerPage = f.perPage
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Sync.PageThreshold = f.maxPages
	}
	if f.database != "" {
		cfg.Output.Database = f.database
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	return cfg.Validate()
}

// repoResult holds the three fetches of one repository.
type repoResult struct {
	issues       *syncer.Result
	pullRequests *syncer.Result
	labels       *syncer.Result
}

// fetchedAll reports whether a list was walked to its end, the condition
// for moving its incremental cutoff.
func fetchedAll(res *syncer.Result) bool {
	return res.Complete && !res.Truncated
}

func (r *repoResult) records() int {
	return len(r.issues.Issues) + len(r.pullRequests.Issues)
}

// fetchRepository runs the issue, pull request and label queries of one
// repository concurrently. Each query owns its session.
func fetchRepository(ctx context.Context, s *syncer.Syncer, repo config.Repository, issueOpts, prOpts syncer.ListOptions, perPage int) (*repoResult, error) {
	base := syncer.Repo(repo.Owner, repo.Name)
	fetch := syncer.FetchOptions{PerPage: perPage}

	var out repoResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.FetchAll(gctx, base.Issues(issueOpts), fetch)
		out.issues = res
		return err
	})
	g.Go(func() error {
		res, err := s.FetchAll(gctx, base.PullRequests(prOpts), fetch)
		out.pullRequests = res
		return err
	})
	g.Go(func() error {
		res, err := s.FetchOne(gctx, base.Labels(), fetch)
		out.labels = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sync %s: %w", repo, err)
	}
	return &out, nil
}

// listOptions builds the list options of one resource. An incremental
// sync with a known cutoff walks the list by update time, newest first,
// so that it can stop at the cutoff.
func listOptions(cfg *config.Config, since, seen time.Time, incremental bool) syncer.ListOptions {
	opts := syncer.ListOptions{
		Sort:         cfg.Sync.Sort,
		Direction:    cfg.Sync.Direction,
		EarliestDate: since,
	}
	if incremental && seen.After(since) {
		opts.Sort = syncer.SortUpdatedAt
		opts.Direction = syncer.DirectionAsc
		opts.EarliestDate = seen
	}
	return opts
}

func newestUpdate(records []syncer.IssueRecord) time.Time {
	var newest time.Time
	for _, r := range records {
		if r.Issue.UpdatedAt.After(newest) {
			newest = r.Issue.UpdatedAt
		}
	}
	return newest
}

// loadRepoState returns the saved state of repo, or a fresh one when the
// repository was never synced or its state cannot be trusted.
func loadRepoState(logger *slog.Logger, path string, repo config.Repository) *state.SyncState {
	st, err := state.LoadState(path)
	if err == nil {
		return st
	}
	if !errors.Is(err, state.ErrNoState) {
		logger.Warn("ignoring sync state", slog.String("repository", repo.String()), slog.Any("error", err))
	}
	return &state.SyncState{Repository: repo.String()}
}

func (a *app) isPrivate(ctx context.Context, client github.RepositoryInfoClient, repo config.Repository) bool {
	if client == nil {
		return false
	}
	info, err := client.GetRepositoryInfo(ctx, repo.Owner, repo.Name)
	if err != nil {
		a.logger.Warn("repository visibility unknown",
			slog.String("repository", repo.String()),
			slog.Any("error", err),
		)
		return false
	}
	return info.IsPrivate
}

func (a *app) openSink(path string) (output.RecordSink, error) {
	if path == "-" {
		return output.NewWriter(a.stdout), nil
	}
	return output.NewFileWriter(path)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// runSync fetches every repository, then writes the snapshots, the sync
// metadata and the per repository state. Nothing is written when the run
// is interrupted.
func (a *app) runSync(ctx context.Context, repos []config.Repository, incremental bool, ndjson string) error {
	cfg := a.cfg
	logger := a.logger

	if len(repos) == 0 {
		return fmt.Errorf("nothing to sync: %w", boarderrors.ErrNoRepository)
	}

	token := a.resolveToken()
	if token == "" {
		logger.Warn("no GitHub token set, requests are unauthenticated")
	}

	ignore, err := cfg.Filter()
	if err != nil {
		return err
	}
	issuesSince, prsSince, err := cfg.EarliestDates()
	if err != nil {
		return err
	}

	tracker := metadata.New()
	rates := ratelimit.NewTracker(tracker.Observe, func(e ratelimit.Event) {
		logger.Debug("rate limit",
			slog.Uint64("event", e.ID),
			slog.Int("remaining", e.Rate.Remaining),
			slog.Int("limit", e.Rate.Limit),
		)
	})

	s := syncer.New(a.newClient(token, cfg.GitHub.GraphQLEndpoint),
		syncer.WithFilter(ignore),
		syncer.WithLogger(logger),
		syncer.WithTracker(rates),
		syncer.WithRetryPolicy(syncer.RetryPolicy{
			WarningThreshold: cfg.Sync.WarningThreshold,
			SleepTime:        cfg.Sync.SleepTime,
		}),
		syncer.WithReactionWarningThreshold(cfg.Sync.ReactionWarningThreshold),
		syncer.WithPageLimit(cfg.PageLimit()),
	)

	var repoInfo github.RepositoryInfoClient
	if token != "" {
		if repoInfo, err = a.newRepoInfo(token, cfg.GitHub.APIEndpoint); err != nil {
			return err
		}
	}

	builder := snapshot.NewBuilder()
	for _, r := range repos {
		builder.AddRepository(r.Owner, r.Name, a.isPrivate(ctx, repoInfo, r))
	}

	snapshotPath := filepath.Join(cfg.Output.Dir, cfg.Output.SnapshotFile)
	var previous *metadata.SyncRef
	if incremental {
		prev, err := snapshot.ReadFile(snapshotPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no previous snapshot, fetching everything", slog.String("path", snapshotPath))
		case err != nil:
			return err
		default:
			builder.Merge(prev)
		}
		if m, err := metadata.LoadLatestMetadata(cfg.Output.Dir); err != nil {
			logger.Warn("previous sync metadata unreadable", slog.Any("error", err))
		} else if m != nil {
			previous = m.Ref()
		}
	}

	var db *store.Store
	if cfg.Output.Database != "" {
		if db, err = store.Open(cfg.Output.Database); err != nil {
			return err
		}
		defer db.Close()
	}

	var sink output.RecordSink
	if ndjson != "" {
		if sink, err = a.openSink(ndjson); err != nil {
			return err
		}
		defer sink.Close()
	}

	states := make(map[string]*state.SyncState, len(repos))
	for _, r := range repos {
		statePath := state.StateFilePath(cfg.Output.StateDir, r.String())
		st := loadRepoState(logger, statePath, r)

		issueOpts := listOptions(cfg, issuesSince, st.IssuesSeenAt, incremental)
		prOpts := listOptions(cfg, prsSince, st.PullRequestsSeenAt, incremental)

		logger.Info("syncing repository", slog.String("repository", r.String()))
		res, err := fetchRepository(ctx, s, r, issueOpts, prOpts, cfg.Sync.PerPage)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("sync interrupted: %w", ctx.Err())
		}

		for _, part := range []*syncer.Result{res.issues, res.pullRequests, res.labels} {
			tracker.RecordResult(r.String(), part)
		}

		builder.AddRecords(res.issues.Issues)
		builder.AddRecords(res.pullRequests.Issues)
		if res.labels.Labels != nil {
			builder.AddLabels(*res.labels.Labels)
		}

		if err := saveToStore(ctx, db, res); err != nil {
			return err
		}
		if sink != nil {
			if err := writeToSink(sink, res); err != nil {
				return err
			}
		}

		for _, part := range []*syncer.Result{res.issues, res.pullRequests} {
			if part.Truncated {
				logger.Warn("page threshold cut the list short, keeping the previous cutoff",
					slog.String("repository", r.String()),
					slog.String("kind", part.Kind.String()),
					slog.Int("pages", part.Pages),
				)
			}
		}
		st.Advance(newestUpdate(res.issues.Issues), newestUpdate(res.pullRequests.Issues),
			fetchedAll(res.issues), fetchedAll(res.pullRequests))
		st.TotalSynced += res.records()
		states[statePath] = st

		logger.Info("repository synced",
			slog.String("repository", r.String()),
			slog.Int("issues", len(res.issues.Issues)),
			slog.Int("pull_requests", len(res.pullRequests.Issues)),
			slog.Bool("complete", res.issues.Complete && res.pullRequests.Complete && res.labels.Complete),
		)
	}

	now := time.Now()
	snap := builder.Build()
	if err := snapshot.WriteFile(snapshotPath, snap); err != nil {
		return err
	}
	recentPath := filepath.Join(cfg.Output.Dir, cfg.Output.RecentFile)
	if err := snapshot.WriteFile(recentPath, snapshot.Recent(snap, now, cfg.Output.RecentWindow)); err != nil {
		return err
	}
	if db != nil {
		for _, r := range snap.Repositories {
			if err := db.SaveRepository(ctx, r.RepoOwner, r.RepoName, r.IsPrivate, r.LastSeenAt); err != nil {
				return err
			}
		}
	}

	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.String()
	}
	meta := tracker.GenerateMetadata(version.Version, metadata.SyncParams{
		Repositories:   names,
		PerPage:        cfg.Sync.PerPage,
		PageThreshold:  cfg.Sync.PageThreshold,
		EarliestDate:   timePtr(issuesSince),
		PREarliestDate: timePtr(prsSince),
	}, incremental, previous)
	if err := metadata.SaveMetadata(meta, cfg.Output.Dir); err != nil {
		return err
	}

	for path, st := range states {
		st.LastSyncID = meta.SyncID
		st.LastSyncTime = now
		if err := state.SaveState(st, path); err != nil {
			return err
		}
	}

	if !meta.Results.Complete {
		logger.Warn("sync incomplete, the snapshot holds partial data",
			slog.Int("warnings", meta.Results.Warnings),
		)
	}
	fmt.Fprintf(a.stderr, "Synced %d issues and %d pull requests from %d repositories in %s\n",
		meta.Results.TotalIssues, meta.Results.TotalPullRequests, len(repos), meta.Results.Duration)
	return nil
}

func saveToStore(ctx context.Context, db *store.Store, res *repoResult) error {
	if db == nil {
		return nil
	}
	if err := db.SaveRecords(ctx, res.issues.Issues); err != nil {
		return err
	}
	if err := db.SaveRecords(ctx, res.pullRequests.Issues); err != nil {
		return err
	}
	if res.labels.Labels != nil {
		return db.SaveLabels(ctx, *res.labels.Labels)
	}
	return nil
}

func writeToSink(sink output.RecordSink, res *repoResult) error {
	if err := sink.WriteRecords(res.issues.Issues); err != nil {
		return err
	}
	if err := sink.WriteRecords(res.pullRequests.Issues); err != nil {
		return err
	}
	if res.labels.Labels != nil {
		return sink.WriteLabels(*res.labels.Labels)
	}
	return nil
}
