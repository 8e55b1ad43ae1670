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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-board/internal/config"
	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/metadata"
	"github.com/sirseerhq/sirseer-board/internal/snapshot"
	"github.com/sirseerhq/sirseer-board/internal/state"
	"github.com/sirseerhq/sirseer-board/internal/store"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

var board = config.Repository{Owner: "octo", Name: "board"}

func mergedPullRequest(number int, updated time.Time) github.PullRequestNode {
	closed := updated
	return github.PullRequestNode{
		Number:    number,
		Title:     fmt.Sprintf("PR %d", number),
		URL:       fmt.Sprintf("https://github.com/octo/board/pull/%d", number),
		State:     "MERGED",
		CreatedAt: updated.Add(-24 * time.Hour),
		UpdatedAt: updated,
		ClosedAt:  &closed,
		Author:    &github.Actor{Login: "hubot"},
	}
}

func boardLabels() *github.LabelPage {
	return &github.LabelPage{Labels: []github.RepoLabel{
		{ID: "L1", Name: "bug", Color: "d73a4a", IsDefault: true},
		{ID: "L2", Name: "ready", Color: "0e8a16"},
	}}
}

// fullSyncClient serves four issues, one of them two months old, one
// merged pull request and two labels.
func fullSyncClient(newest time.Time) *github.MockClient {
	old := github.GenerateIssues(50, 1, newest.AddDate(0, 0, -60))
	return github.NewMockClient(
		github.WithIssuePages(&github.IssuePage{
			Nodes: append(old, github.GenerateIssues(1, 3, newest)...),
		}),
		github.WithPullRequestPages(&github.PullRequestPage{
			Nodes: []github.PullRequestNode{mergedPullRequest(10, newest.Add(-10*time.Minute))},
		}),
		github.WithLabels(boardLabels()),
	)
}

func numbers(records []syncer.IssueRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Issue.Number
	}
	return out
}

func TestRunSyncFull(t *testing.T) {
	newest := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	a, _ := newTestApp(t, fullSyncClient(newest))
	dir := a.cfg.Output.Dir

	if err := a.runSync(context.Background(), []config.Repository{board}, false, ""); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	snap, err := snapshot.ReadFile(filepath.Join(dir, "issues.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got, want := fmt.Sprint(numbers(snap.Issues)), "[50 1 2 3 10]"; got != want {
		t.Errorf("snapshot numbers = %s, want %s", got, want)
	}
	if pr := snap.Issues[4]; pr.Issue.State != "closed" || !pr.IsPullRequest() {
		t.Errorf("pull request record = %+v, want closed pull request", pr.Issue)
	}
	if len(snap.RepoLabels) != 1 || len(snap.RepoLabels[0].Labels) != 2 {
		t.Errorf("labels = %+v, want one list of 2", snap.RepoLabels)
	}
	if len(snap.Repositories) != 1 {
		t.Fatalf("repositories = %d, want 1", len(snap.Repositories))
	}
	repo := snap.Repositories[0]
	if !repo.IsPrivate {
		t.Error("IsPrivate = false, want true")
	}
	if repo.LastSeenAt == nil || !repo.LastSeenAt.Equal(newest) {
		t.Errorf("LastSeenAt = %v, want %v", repo.LastSeenAt, newest)
	}

	recent, err := snapshot.ReadFile(filepath.Join(dir, "issues-recent.json"))
	if err != nil {
		t.Fatalf("ReadFile(recent) error = %v", err)
	}
	if got, want := fmt.Sprint(numbers(recent.Issues)), "[1 2 3 10]"; got != want {
		t.Errorf("recent numbers = %s, want %s", got, want)
	}

	meta, err := metadata.LoadLatestMetadata(dir)
	if err != nil || meta == nil {
		t.Fatalf("LoadLatestMetadata() = %v, %v", meta, err)
	}
	if meta.Results.TotalIssues != 4 || meta.Results.TotalPullRequests != 1 || meta.Results.TotalLabels != 2 {
		t.Errorf("totals = %+v", meta.Results)
	}
	if meta.Results.APICallCount != 3 {
		t.Errorf("APICallCount = %d, want 3", meta.Results.APICallCount)
	}
	if !meta.Results.Complete || meta.Incremental || meta.PreviousSync != nil {
		t.Errorf("metadata = %+v, want complete full sync", meta)
	}

	st, err := state.LoadState(state.StateFilePath(a.cfg.Output.StateDir, "octo/board"))
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !st.IssuesSeenAt.Equal(newest) {
		t.Errorf("IssuesSeenAt = %v, want %v", st.IssuesSeenAt, newest)
	}
	if !st.PullRequestsSeenAt.Equal(newest.Add(-10 * time.Minute)) {
		t.Errorf("PullRequestsSeenAt = %v", st.PullRequestsSeenAt)
	}
	if st.LastSyncID != meta.SyncID || st.TotalSynced != 5 {
		t.Errorf("state = %+v, want sync id %s and 5 records", st, meta.SyncID)
	}

	if msg := a.stderr.(fmt.Stringer).String(); !strings.Contains(msg, "Synced 4 issues and 1 pull requests from 1 repositories") {
		t.Errorf("summary = %q", msg)
	}
}

func TestRunSyncIncremental(t *testing.T) {
	cutoff := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	client := github.NewMockClient(
		github.WithIssuePages(&github.IssuePage{
			Nodes: github.GenerateIssues(1, 2, cutoff.Add(time.Hour)),
		}),
	)
	a, _ := newTestApp(t, client)
	dir := a.cfg.Output.Dir

	prev := snapshot.NewBuilder()
	prev.AddRepository("octo", "board", false)
	prev.AddRepository("octo", "retired", false)
	stale := github.GenerateIssues(1, 1, cutoff.Add(-time.Hour))[0]
	kept := github.GenerateIssues(7, 1, cutoff.Add(-2*time.Hour))[0]
	prev.AddRecords([]syncer.IssueRecord{
		syncer.MapIssue("octo", "board", stale),
		syncer.MapIssue("octo", "board", kept),
		syncer.MapIssue("octo", "retired", stale),
	})
	if err := snapshot.WriteFile(filepath.Join(dir, "issues.json"), prev.Build()); err != nil {
		t.Fatal(err)
	}
	statePath := state.StateFilePath(a.cfg.Output.StateDir, "octo/board")
	if err := state.SaveState(&state.SyncState{Repository: "octo/board", IssuesSeenAt: cutoff}, statePath); err != nil {
		t.Fatal(err)
	}
	earlier := &metadata.SyncMetadata{
		SyncID:  "full-1",
		Results: metadata.SyncResults{StartedAt: time.UnixMilli(1), CompletedAt: time.UnixMilli(2)},
	}
	if err := metadata.SaveMetadata(earlier, dir); err != nil {
		t.Fatal(err)
	}

	if err := a.runSync(context.Background(), []config.Repository{board}, true, ""); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	calls := client.Calls()
	for _, c := range calls {
		switch c.Method {
		case github.MethodIssues:
			if c.Page.Sort != syncer.SortUpdatedAt {
				t.Errorf("issue sort = %q, want %q", c.Page.Sort, syncer.SortUpdatedAt)
			}
		case github.MethodPullRequests:
			if c.Page.Sort != syncer.SortCreatedAt {
				t.Errorf("pull request sort = %q, want %q without a saved cutoff", c.Page.Sort, syncer.SortCreatedAt)
			}
		}
	}

	snap, err := snapshot.ReadFile(filepath.Join(dir, "issues.json"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fmt.Sprint(numbers(snap.Issues)), "[1 7 2]"; got != want {
		t.Errorf("snapshot numbers = %s, want %s", got, want)
	}
	for _, r := range snap.Issues {
		if r.RepoName != "board" {
			t.Errorf("record of unconfigured repository %s kept", r.Key())
		}
	}
	if got := snap.Issues[0].Issue.UpdatedAt; !got.Equal(cutoff.Add(59 * time.Minute)) {
		t.Errorf("issue 1 UpdatedAt = %v, want the refetched value", got)
	}

	st, err := state.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IssuesSeenAt.Equal(cutoff.Add(time.Hour)) {
		t.Errorf("IssuesSeenAt = %v, want %v", st.IssuesSeenAt, cutoff.Add(time.Hour))
	}

	meta, err := metadata.LoadLatestMetadata(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !meta.Incremental || meta.PreviousSync == nil || meta.PreviousSync.SyncID != "full-1" {
		t.Errorf("metadata = %+v, want incremental sync linked to full-1", meta)
	}
}

func TestRunSyncIncompleteKeepsCutoff(t *testing.T) {
	cutoff := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	client := github.NewMockClient(github.WithError(fmt.Errorf("dial tcp: %w", boarderrors.ErrNetworkFailure)))
	a, _ := newTestApp(t, client)
	a.cfg.Sync.WarningThreshold = 2

	statePath := state.StateFilePath(a.cfg.Output.StateDir, "octo/board")
	if err := state.SaveState(&state.SyncState{Repository: "octo/board", IssuesSeenAt: cutoff}, statePath); err != nil {
		t.Fatal(err)
	}

	if err := a.runSync(context.Background(), []config.Repository{board}, false, ""); err != nil {
		t.Fatalf("runSync() error = %v, want partial success", err)
	}

	if got := client.CallCount(github.MethodIssues); got != 2 {
		t.Errorf("issue requests = %d, want 2", got)
	}
	st, err := state.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IssuesSeenAt.Equal(cutoff) {
		t.Errorf("IssuesSeenAt = %v, want unchanged %v", st.IssuesSeenAt, cutoff)
	}
	meta, err := metadata.LoadLatestMetadata(a.cfg.Output.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Results.Complete {
		t.Error("Complete = true, want false")
	}
	if meta.Results.Warnings != 6 {
		t.Errorf("Warnings = %d, want 6", meta.Results.Warnings)
	}
}

func TestRunSyncPageThresholdKeepsCutoff(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pages := func() *github.MockClient {
		return github.NewMockClient(github.WithIssuePages(
			&github.IssuePage{
				Nodes:    github.GenerateIssues(2, 1, cutoff.Add(3*time.Hour)),
				PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true},
			},
			&github.IssuePage{Nodes: github.GenerateIssues(1, 1, cutoff.Add(time.Hour))},
		))
	}
	capped := pages()
	a, _ := newTestApp(t, capped)
	a.cfg.Sync.PageThreshold = 1

	statePath := state.StateFilePath(a.cfg.Output.StateDir, "octo/board")
	if err := state.SaveState(&state.SyncState{Repository: "octo/board", IssuesSeenAt: cutoff}, statePath); err != nil {
		t.Fatal(err)
	}

	if err := a.runSync(context.Background(), []config.Repository{board}, true, ""); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	if got := capped.CallCount(github.MethodIssues); got != 1 {
		t.Fatalf("issue requests = %d, want 1 under a threshold of 1", got)
	}
	st, err := state.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IssuesSeenAt.Equal(cutoff) {
		t.Fatalf("IssuesSeenAt = %v, want %v kept while issue #1 is unfetched", st.IssuesSeenAt, cutoff)
	}

	// Without the threshold the next run reaches issue #1 from the same cutoff.
	full := pages()
	a.newClient = func(token, endpoint string) github.Client { return full }
	a.cfg.Sync.PageThreshold = 0
	if err := a.runSync(context.Background(), []config.Repository{board}, true, ""); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	for _, c := range full.Calls() {
		if c.Method == github.MethodIssues && c.Page.Sort != syncer.SortUpdatedAt {
			t.Errorf("issue sort = %q, want %q", c.Page.Sort, syncer.SortUpdatedAt)
		}
	}

	snap, err := snapshot.ReadFile(filepath.Join(a.cfg.Output.Dir, "issues.json"))
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(numbers(snap.Issues)); got != "[2 1]" {
		t.Errorf("snapshot numbers = %s, want [2 1]", got)
	}
	if st, err = state.LoadState(statePath); err != nil {
		t.Fatal(err)
	}
	if want := cutoff.Add(3 * time.Hour); !st.IssuesSeenAt.Equal(want) {
		t.Errorf("IssuesSeenAt = %v, want %v after a full walk", st.IssuesSeenAt, want)
	}
}

func TestRunSyncStoreAndNDJSON(t *testing.T) {
	newest := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	a, _ := newTestApp(t, fullSyncClient(newest))
	dir := a.cfg.Output.Dir
	a.cfg.Output.Database = filepath.Join(dir, "board.db")
	ndjson := filepath.Join(dir, "records.ndjson")

	if err := a.runSync(context.Background(), []config.Repository{board}, false, ndjson); err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	db, err := store.Open(a.cfg.Output.Database)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	if n, err := db.CountRecords(ctx, "octo", "board"); err != nil || n != 5 {
		t.Errorf("CountRecords() = %d, %v, want 5", n, err)
	}
	labels, err := db.Labels(ctx, "octo", "board")
	if err != nil || len(labels.Labels) != 2 {
		t.Errorf("Labels() = %+v, %v, want 2 labels", labels, err)
	}
	if seen, ok, err := db.LastSeenAt(ctx, "octo", "board"); err != nil || !ok || !seen.Equal(newest) {
		t.Errorf("LastSeenAt() = %v, %v, %v, want %v", seen, ok, err, newest)
	}

	f, err := os.Open(ndjson)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines++
	}
	if lines != 6 {
		t.Errorf("NDJSON lines = %d, want 5 records and 1 label list", lines)
	}
}

func TestRunSyncErrors(t *testing.T) {
	t.Run("no repositories", func(t *testing.T) {
		a, _ := newTestApp(t, github.NewMockClient())
		err := a.runSync(context.Background(), nil, false, "")
		if !errors.Is(err, boarderrors.ErrNoRepository) {
			t.Errorf("runSync() error = %v, want ErrNoRepository", err)
		}
	})

	t.Run("interrupted writes nothing", func(t *testing.T) {
		a, _ := newTestApp(t, fullSyncClient(time.Now().UTC()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := a.runSync(ctx, []config.Repository{board}, false, "")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("runSync() error = %v, want context.Canceled", err)
		}
		if _, err := os.Stat(filepath.Join(a.cfg.Output.Dir, "issues.json")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("snapshot written after interruption: %v", err)
		}
	})

	t.Run("visibility lookup failure is not fatal", func(t *testing.T) {
		a, _ := newTestApp(t, fullSyncClient(time.Now().UTC()))
		a.newRepoInfo = func(token, baseURL string) (github.RepositoryInfoClient, error) {
			return repoInfoStub{err: &github.StatusError{StatusCode: 404}}, nil
		}
		if err := a.runSync(context.Background(), []config.Repository{board}, false, ""); err != nil {
			t.Fatalf("runSync() error = %v", err)
		}
		snap, err := snapshot.ReadFile(filepath.Join(a.cfg.Output.Dir, "issues.json"))
		if err != nil {
			t.Fatal(err)
		}
		if snap.Repositories[0].IsPrivate {
			t.Error("IsPrivate = true, want false when unknown")
		}
	})
}

func TestListOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		seen        time.Time
		incremental bool
		wantSort    string
		wantDate    time.Time
	}{
		{"full sync ignores state", seen, false, syncer.SortCreatedAt, since},
		{"incremental without state", time.Time{}, true, syncer.SortCreatedAt, since},
		{"incremental with newer state", seen, true, syncer.SortUpdatedAt, seen},
		{"incremental with older state", since.AddDate(0, -1, 0), true, syncer.SortCreatedAt, since},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listOptions(cfg, since, tt.seen, tt.incremental)
			if got.Sort != tt.wantSort || !got.EarliestDate.Equal(tt.wantDate) {
				t.Errorf("listOptions() = %+v, want sort %s since %v", got, tt.wantSort, tt.wantDate)
			}
		})
	}
}
