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

package syncer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/filter"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
)

func newTestSyncer(client github.Client, opts ...Option) (*Syncer, *sleepRecorder) {
	rec := &sleepRecorder{}
	opts = append([]Option{withSleep(rec.sleep)}, opts...)
	return New(client, opts...), rec
}

func issueQuery() Query {
	return Repo("octo", "board").Issues(ListOptions{})
}

func TestFetchAllTwoPages(t *testing.T) {
	mock := github.NewMockClient(github.WithIssuePages(
		&github.IssuePage{
			Nodes:    github.GenerateIssues(2, 100, testNow),
			PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true},
		},
		&github.IssuePage{
			Nodes:    github.GenerateIssues(1, 1, testNow.Add(-24*time.Hour)),
			PageInfo: github.PageInfo{StartCursor: "c2", HasPreviousPage: false},
		},
	))
	s, _ := newTestSyncer(mock)

	res, err := s.FetchAll(context.Background(), issueQuery(), FetchOptions{PerPage: 100})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(res.Issues) != 101 {
		t.Errorf("got %d issues, want 101", len(res.Issues))
	}
	if n := mock.CallCount(github.MethodIssues); n != 2 {
		t.Errorf("made %d requests, want 2", n)
	}
	if res.Requests != 2 || res.Pages != 2 || !res.Complete || res.Warnings != 0 {
		t.Errorf("result counters = %+v", res)
	}

	calls := mock.Calls()
	if calls[0].Page.Before != "" || calls[1].Page.Before != "c1" {
		t.Errorf("cursors = %q, %q", calls[0].Page.Before, calls[1].Page.Before)
	}
	if calls[0].Page.Size != 1 || calls[1].Page.Size != 2 {
		t.Errorf("sizes = %d, %d; want slow start 1, 2", calls[0].Page.Size, calls[1].Page.Size)
	}
	if calls[0].Page.Sort != SortCreatedAt || calls[0].Page.Direction != DirectionAsc {
		t.Errorf("order = %s %s", calls[0].Page.Sort, calls[0].Page.Direction)
	}
	if res.Issues[0].Issue.Number != 2 || res.Issues[100].Issue.Number != 1 {
		t.Error("provider order not preserved")
	}
}

func TestFetchAllRetryTerminates(t *testing.T) {
	mock := github.NewMockClient(github.WithError(errors.New("connection reset by peer")))
	s, rec := newTestSyncer(mock)

	res, err := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if n := mock.CallCount(github.MethodIssues); n != DefaultWarningThreshold {
		t.Errorf("made %d attempts, want %d", n, DefaultWarningThreshold)
	}
	if len(res.Issues) != 0 {
		t.Errorf("got %d issues, want none", len(res.Issues))
	}
	if res.Complete || res.Warnings != DefaultWarningThreshold {
		t.Errorf("result = %+v", res)
	}
	if rec.count() != DefaultWarningThreshold-1 {
		t.Errorf("slept %d times, want %d", rec.count(), DefaultWarningThreshold-1)
	}
}

// flakyClient fails the listed issue calls, counted from one, and
// records the page options of every attempt.
type flakyClient struct {
	*github.MockClient
	failAt   map[int]bool
	attempts []github.PageOptions
}

func (c *flakyClient) FetchIssues(ctx context.Context, owner, repo string, opts github.PageOptions) (*github.IssuePage, error) {
	c.attempts = append(c.attempts, opts)
	if c.failAt[len(c.attempts)] {
		return nil, boarderrors.ErrEmptyResponse
	}
	return c.MockClient.FetchIssues(ctx, owner, repo, opts)
}

func TestFetchAllRetriesSamePage(t *testing.T) {
	client := &flakyClient{
		MockClient: github.NewMockClient(github.WithIssuePages(
			&github.IssuePage{
				Nodes:    github.GenerateIssues(3, 2, testNow),
				PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true},
			},
			&github.IssuePage{
				Nodes:    github.GenerateIssues(1, 2, testNow.Add(-time.Hour)),
				PageInfo: github.PageInfo{StartCursor: "c2"},
			},
		)),
		failAt: map[int]bool{2: true, 3: true},
	}
	s, rec := newTestSyncer(client, WithRetryPolicy(RetryPolicy{WarningThreshold: 5, SleepTime: 2 * time.Second}))

	res, err := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if len(client.attempts) != 4 {
		t.Fatalf("made %d attempts, want 4", len(client.attempts))
	}
	for i, opts := range client.attempts[1:] {
		if opts.Before != "c1" || opts.Size != 2 {
			t.Errorf("attempt %d used size %d cursor %q, want the second page again", i+2, opts.Size, opts.Before)
		}
	}
	if len(res.Issues) != 4 || !res.Complete || res.Warnings != 2 || res.Requests != 4 {
		t.Errorf("result = %+v", res)
	}
	if rec.count() != 2 || rec.waits[0] != 2*time.Second {
		t.Errorf("sleeps = %v", rec.waits)
	}
}

func TestFetchAllPartialAfterFailure(t *testing.T) {
	failAt := map[int]bool{}
	for i := 2; i < 10; i++ {
		failAt[i] = true
	}
	client := &flakyClient{
		MockClient: github.NewMockClient(github.WithIssuePages(&github.IssuePage{
			Nodes:    github.GenerateIssues(5, 3, testNow),
			PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true},
		})),
		failAt: failAt,
	}
	s, _ := newTestSyncer(client, WithRetryPolicy(RetryPolicy{WarningThreshold: 4}))

	res, err := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Issues) != 3 || res.Complete || res.Warnings != 4 || res.Pages != 1 {
		t.Errorf("result = %+v, want the first page kept and the session aborted", res)
	}
	if len(client.attempts) != 5 {
		t.Errorf("made %d attempts, want 5", len(client.attempts))
	}
}

func TestFetchAllEarliestDate(t *testing.T) {
	cutoff := testNow.Add(-90 * time.Minute)
	// Page one: updated at now-4m .. now. Page two: now-3h-2m .. now-3h.
	mock := github.NewMockClient(github.WithIssuePages(
		&github.IssuePage{
			Nodes:    github.GenerateIssues(10, 5, testNow),
			PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true},
		},
		&github.IssuePage{
			Nodes: append(
				github.GenerateIssues(1, 3, testNow.Add(-3*time.Hour)),
				github.GenerateIssues(4, 2, cutoff)...,
			),
			PageInfo: github.PageInfo{StartCursor: "c2", HasPreviousPage: true},
		},
		&github.IssuePage{
			Nodes:    github.GenerateIssues(20, 1, testNow),
			PageInfo: github.PageInfo{StartCursor: "c3"},
		},
	))
	s, _ := newTestSyncer(mock)

	q := Repo("octo", "board").Issues(ListOptions{Sort: SortUpdatedAt, EarliestDate: cutoff})
	res, _ := s.FetchAll(context.Background(), q, FetchOptions{})

	if n := mock.CallCount(github.MethodIssues); n != 2 {
		t.Errorf("made %d requests, want pagination to stop after the boundary page", n)
	}
	if len(res.Issues) != 6 {
		t.Fatalf("got %d issues, want 6", len(res.Issues))
	}
	for _, rec := range res.Issues {
		if rec.Issue.UpdatedAt.Before(cutoff) {
			t.Errorf("issue %d updated %v is before %v", rec.Issue.Number, rec.Issue.UpdatedAt, cutoff)
		}
	}
	if !res.Complete {
		t.Error("stopping at the earliest date is a natural end")
	}
}

func TestFetchAllPageLimit(t *testing.T) {
	pages := make([]*github.IssuePage, 5)
	for i := range pages {
		pages[i] = &github.IssuePage{
			Nodes:    github.GenerateIssues(i*10, 1, testNow),
			PageInfo: github.PageInfo{StartCursor: "c", HasPreviousPage: true},
		}
	}
	mock := github.NewMockClient(github.WithIssuePages(pages...))
	s, _ := newTestSyncer(mock, WithPageLimit(3))

	res, _ := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if res.Pages != 3 || len(res.Issues) != 3 || mock.CallCount(github.MethodIssues) != 3 {
		t.Errorf("pages = %d, issues = %d, calls = %d; want 3", res.Pages, len(res.Issues), mock.CallCount(github.MethodIssues))
	}
	if !res.Complete || !res.Truncated {
		t.Errorf("Complete = %v, Truncated = %v; want a complete but truncated result", res.Complete, res.Truncated)
	}
}

func TestFetchAllPageLimitNotReached(t *testing.T) {
	mock := github.NewMockClient(github.WithIssuePages(
		&github.IssuePage{Nodes: github.GenerateIssues(1, 1, testNow), PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true}},
		&github.IssuePage{Nodes: github.GenerateIssues(2, 1, testNow)},
	))
	s, _ := newTestSyncer(mock, WithPageLimit(2))

	res, _ := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if len(res.Issues) != 2 || res.Truncated {
		t.Errorf("issues = %d, Truncated = %v; want 2 issues, list walked to its end", len(res.Issues), res.Truncated)
	}
}

func TestFetchOneIssues(t *testing.T) {
	mock := github.NewMockClient(github.WithIssuePages(
		&github.IssuePage{Nodes: github.GenerateIssues(1, 1, testNow), PageInfo: github.PageInfo{StartCursor: "c1", HasPreviousPage: true}},
		&github.IssuePage{Nodes: github.GenerateIssues(2, 1, testNow)},
	))
	s, _ := newTestSyncer(mock)

	res, err := s.FetchOne(context.Background(), issueQuery(), FetchOptions{PerPage: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Issues) != 1 || mock.CallCount(github.MethodIssues) != 1 {
		t.Errorf("FetchOne made %d calls returning %d issues", mock.CallCount(github.MethodIssues), len(res.Issues))
	}
}

func TestFetchIdempotent(t *testing.T) {
	page := &github.IssuePage{Nodes: github.GenerateIssues(1, 4, testNow)}
	mock := github.NewMockClient(github.WithIssuePages(page, page))
	s, _ := newTestSyncer(mock)

	first, _ := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	second, _ := s.FetchAll(context.Background(), issueQuery(), FetchOptions{})
	if !reflect.DeepEqual(first.Issues, second.Issues) {
		t.Error("two fetches of an unchanged repository differ")
	}
}

func TestFetchValidation(t *testing.T) {
	s, _ := newTestSyncer(github.NewMockClient())

	tests := []struct {
		name string
		q    Query
		want error
	}{
		{name: "no repository", q: Query{}.Issues(ListOptions{}), want: boarderrors.ErrNoRepository},
		{name: "no owner", q: Repo("", "board").Labels(), want: boarderrors.ErrNoRepository},
		{name: "no resource", q: Repo("octo", "board"), want: boarderrors.ErrNoResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.FetchAll(context.Background(), tt.q, FetchOptions{}); !errors.Is(err, tt.want) {
				t.Errorf("FetchAll error = %v, want %v", err, tt.want)
			}
			if _, err := s.FetchOne(context.Background(), tt.q, FetchOptions{}); !errors.Is(err, tt.want) {
				t.Errorf("FetchOne error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFetchLabels(t *testing.T) {
	mock := github.NewMockClient(github.WithLabels(&github.LabelPage{
		Labels:    []github.RepoLabel{{ID: "L1", Name: "bug", Color: "d73a4a", IsDefault: true}},
		RateLimit: github.RateLimit{Limit: 5000, Remaining: 10},
	}))
	s, _ := newTestSyncer(mock)

	// FetchAll delegates to a single fetch for labels.
	res, err := s.FetchAll(context.Background(), Repo("octo", "board").Labels(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if mock.CallCount(github.MethodLabels) != 1 {
		t.Errorf("label calls = %d, want 1", mock.CallCount(github.MethodLabels))
	}
	if res.Labels == nil || res.Labels.RepoOwner != "octo" || len(res.Labels.Labels) != 1 || !res.Labels.Labels[0].Default {
		t.Errorf("labels = %+v", res.Labels)
	}
	if last, ok := s.Tracker().Last(); !ok || last.Remaining != 10 {
		t.Errorf("tracker last = %+v, %v", last, ok)
	}
}

func TestFetchLabelsFailure(t *testing.T) {
	mock := github.NewMockClient(github.WithError(errors.New("502 Bad Gateway")))
	s, _ := newTestSyncer(mock, WithRetryPolicy(RetryPolicy{WarningThreshold: 2}))

	res, err := s.FetchOne(context.Background(), Repo("octo", "board").Labels(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Labels != nil || res.Complete || mock.CallCount(github.MethodLabels) != 2 {
		t.Errorf("result = %+v after %d calls", res, mock.CallCount(github.MethodLabels))
	}
}

func TestFetchPullRequestsWithReactions(t *testing.T) {
	quiet := pullRequest(1, testNow, nil, []github.IssueComment{issueComment("q1", "fine", "alice")})

	busy := pullRequest(2, testNow,
		[]github.ReviewComment{reviewComment("r1", "nit: rename", "alice"), reviewComment("r2", "ack", "bob")},
		[]github.IssueComment{reacted(issueComment("c1", "LGTM", "carol")), issueComment("c2", "Build succeeded", "bors")},
	)
	busy.Reviews.TotalCount = 30
	busy.Comments.TotalCount = 150

	detail := &github.ReactionPage{Comments: []github.RawComment{
		{ID: "r1", Reactions: reactionsOf("THUMBS_UP")},
		{ID: "r2", Reactions: reactionsOf("LAUGH")},
		{ID: "c1", Reactions: reactionsOf("HEART", "HEART")},
		{ID: "c2"},
	}}

	mock := github.NewMockClient(
		github.WithPullRequestPages(&github.PullRequestPage{Nodes: []github.PullRequestNode{quiet, busy}}),
		github.WithReactions(2, detail),
	)
	f, _ := filter.New([]string{"bors"}, []string{"^(unack|ack)"})
	s, _ := newTestSyncer(mock, WithFilter(f))

	res, err := s.FetchAll(context.Background(), Repo("octo", "board").PullRequests(ListOptions{}), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if n := mock.CallCount(github.MethodReactions); n != 1 {
		t.Fatalf("reaction sub-fetches = %d, want 1 (only the pull request with reactions)", n)
	}
	var sub github.MockCall
	for _, c := range mock.Calls() {
		if c.Method == github.MethodReactions {
			sub = c
		}
	}
	wantOpts := github.ReactionOptions{PRNumber: 2, ReviewsCount: 20, DiscussionsPerReview: 2, CommentsCount: 100}
	if sub.Reactions != wantOpts {
		t.Errorf("sub-fetch options = %+v, want %+v", sub.Reactions, wantOpts)
	}
	if res.Requests != 2 {
		t.Errorf("requests = %d, want page plus sub-fetch", res.Requests)
	}

	if len(res.Issues) != 2 {
		t.Fatalf("got %d records", len(res.Issues))
	}
	quietPR := res.Issues[0].Issue.PullRequest
	if quietPR == nil || len(quietPR.Comments) != 1 || quietPR.Comments[0].Reactions != nil {
		t.Errorf("quiet pull request = %+v", quietPR)
	}

	busyPR := res.Issues[1].Issue.PullRequest
	var ids []string
	for _, c := range busyPR.Comments {
		ids = append(ids, c.ID)
	}
	if !reflect.DeepEqual(ids, []string{"r1", "c1"}) {
		t.Fatalf("kept comments %v, want [r1 c1]", ids)
	}
	if busyPR.Comments[0].DiffHunk == nil || busyPR.Comments[1].DiffHunk != nil {
		t.Error("diffHunk should only be set on review comments")
	}
	if got := busyPR.Comments[1].ReactionStats()[Heart]; got != 2 {
		t.Errorf("c1 hearts = %d, want 2", got)
	}
	if got := busyPR.Comments[0].Reactions; len(got) != 1 || got[0].Content != ThumbsUp {
		t.Errorf("r1 reactions = %+v", got)
	}
}

func TestReactionSubFetchGivesUpAfterThree(t *testing.T) {
	pr := pullRequest(7, testNow, nil, []github.IssueComment{reacted(issueComment("c1", "hi", "alice"))})
	mock := github.NewMockClient(github.WithPullRequestPages(&github.PullRequestPage{Nodes: []github.PullRequestNode{pr}}))
	mock.FailNext(github.MethodReactions, 10, errors.New("timeout"))
	s, _ := newTestSyncer(mock)

	res, _ := s.FetchAll(context.Background(), Repo("octo", "board").PullRequests(ListOptions{}), FetchOptions{})

	if n := mock.CallCount(github.MethodReactions); n != DefaultReactionWarningThreshold {
		t.Errorf("sub-fetch attempts = %d, want %d", n, DefaultReactionWarningThreshold)
	}
	if len(res.Issues) != 1 || res.Issues[0].Issue.PullRequest.Comments[0].Reactions != nil {
		t.Errorf("pull request should be kept without reactions: %+v", res.Issues)
	}
	if !res.Complete || res.Warnings != 0 {
		t.Errorf("sub-fetch failures must not count against the parent session: %+v", res)
	}
}

func TestFetchReactions(t *testing.T) {
	mock := github.NewMockClient(github.WithReactions(9, &github.ReactionPage{Comments: []github.RawComment{
		{ID: "r1", Reactions: reactionsOf("HOORAY")},
		{ID: "c1"},
	}}))
	s, _ := newTestSyncer(mock)

	res, err := s.FetchOne(context.Background(), Repo("octo", "board").Reactions(ReactionOptions{PRNumber: 9}), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Comments) != 2 || res.Comments[0].Reactions[0].Content != Hooray {
		t.Errorf("comments = %+v", res.Comments)
	}
	got := mock.Calls()[0].Reactions
	want := github.ReactionOptions{PRNumber: 9, ReviewsCount: 20, DiscussionsPerReview: 10, CommentsCount: 20}
	if got != want {
		t.Errorf("options = %+v, want defaults %+v", got, want)
	}
}

func TestRateLimitEvents(t *testing.T) {
	var events []ratelimit.Event
	tracker := ratelimit.NewTracker(func(e ratelimit.Event) { events = append(events, e) })

	mock := github.NewMockClient(github.WithIssuePages(
		&github.IssuePage{PageInfo: github.PageInfo{HasPreviousPage: true, StartCursor: "c"}, RateLimit: github.RateLimit{Limit: 5000, Remaining: 100}},
		&github.IssuePage{RateLimit: github.RateLimit{Limit: 5000, Remaining: 99}},
	))
	mock.FailNext(github.MethodIssues, 1, errors.New("flaky"))
	s, _ := newTestSyncer(mock, WithTracker(tracker))

	if _, err := s.FetchAll(context.Background(), issueQuery(), FetchOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want one per successful response", len(events))
	}
	if events[0].ID != 0 || events[1].ID != 1 || events[1].Rate.Remaining != 99 || events[0].Status != 200 {
		t.Errorf("events = %+v", events)
	}
}

func TestFetchCancelled(t *testing.T) {
	mock := github.NewMockClient(github.WithIssuePages(&github.IssuePage{Nodes: github.GenerateIssues(1, 1, testNow)}))
	s, _ := newTestSyncer(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.FetchAll(ctx, issueQuery(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Complete || len(res.Issues) != 0 || mock.CallCount(github.MethodIssues) != 1 {
		t.Errorf("cancelled fetch = %+v", res)
	}
}
