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
	"fmt"
	"log/slog"
	"time"

	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/filter"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
)

// Caps for the counts of the reaction sub-fetch derived from a pull
// request node.
const (
	maxSubFetchReviews     = 20
	maxSubFetchDiscussions = 100
	maxSubFetchComments    = 100
)

// Syncer runs queries against a github.Client. It holds no per-fetch
// state: every FetchAll and FetchOne call owns a fresh session, so one
// Syncer may serve concurrent calls.
type Syncer struct {
	client        github.Client
	reconciler    *Reconciler
	tracker       *ratelimit.Tracker
	logger        *slog.Logger
	policy        RetryPolicy
	reactionRetry RetryPolicy
	pageLimit     int
	sleep         sleepFunc
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithFilter sets the ignore rules applied to pull request comments.
func WithFilter(f *filter.Filter) Option {
	return func(s *Syncer) {
		s.reconciler = NewReconciler(f)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracker sets the rate limit tracker that receives an event after
// every successful request.
func WithTracker(t *ratelimit.Tracker) Option {
	return func(s *Syncer) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithRetryPolicy sets the retry policy of top level sessions.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Syncer) {
		s.policy = p.normalized()
	}
}

// WithReactionWarningThreshold sets the warning threshold of the reaction
// sub-fetch. The sleep time follows the main policy.
func WithReactionWarningThreshold(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.reactionRetry.WarningThreshold = n
		}
	}
}

// WithPageLimit stops pagination after n pages. Zero means unlimited.
func WithPageLimit(n int) Option {
	return func(s *Syncer) {
		if n >= 0 {
			s.pageLimit = n
		}
	}
}

func withSleep(fn sleepFunc) Option {
	return func(s *Syncer) {
		s.sleep = fn
	}
}

// New creates a Syncer for client.
func New(client github.Client, opts ...Option) *Syncer {
	s := &Syncer{
		client:        client,
		reconciler:    NewReconciler(nil),
		tracker:       ratelimit.NewTracker(),
		logger:        slog.New(slog.DiscardHandler),
		policy:        DefaultRetryPolicy(),
		reactionRetry: RetryPolicy{WarningThreshold: DefaultReactionWarningThreshold},
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reactionRetry.SleepTime = s.policy.SleepTime
	return s
}

// Tracker returns the rate limit tracker.
func (s *Syncer) Tracker() *ratelimit.Tracker {
	return s.tracker
}

// FetchAll paginates an issue or pull request query until GitHub has no
// older page, the earliest date is crossed or the page limit is reached.
// Labels and reactions are not paginated; for them FetchAll logs a
// warning and behaves like FetchOne.
//
// Provider and transport failures never surface as errors. They are
// retried and, past the warning threshold, end the fetch with partial
// data and Result.Complete set to false. The error return is reserved for
// queries that cannot run at all.
func (s *Syncer) FetchAll(ctx context.Context, q Query, opts FetchOptions) (*Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.kind == KindLabels || q.kind == KindReactions {
		s.logger.Warn("only issues and pull requests paginate, fetching once",
			slog.String("kind", q.kind.String()))
		return s.fetch(ctx, q, opts, true), nil
	}
	return s.fetch(ctx, q, opts, false), nil
}

// FetchOne performs exactly one fetch cycle: one page of issues or pull
// requests, the label list, or the reaction detail of one pull request.
func (s *Syncer) FetchOne(ctx context.Context, q Query, opts FetchOptions) (*Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return s.fetch(ctx, q, opts, true), nil
}

func (q Query) validate() error {
	if q.owner == "" || q.name == "" {
		return boarderrors.ErrNoRepository
	}
	if q.kind == KindNone {
		return fmt.Errorf("%s/%s: %w", q.owner, q.name, boarderrors.ErrNoResource)
	}
	return nil
}

func (s *Syncer) fetch(ctx context.Context, q Query, opts FetchOptions, once bool) *Result {
	sess := newSession(q, opts.PerPage, s.policy, s.sleep, s.logger)
	res := &Result{Kind: q.kind}

	switch q.kind {
	case KindIssues:
		s.fetchIssues(ctx, q, sess, once, res)
	case KindPullRequests:
		s.fetchPullRequests(ctx, q, sess, once, res)
	case KindLabels:
		s.fetchLabels(ctx, q, sess, res)
	case KindReactions:
		s.fetchReactions(ctx, q, sess, res)
	}

	res.Pages = sess.pages
	res.Requests += sess.requests
	res.Warnings = sess.warnings
	res.Complete = !sess.aborted
	res.Truncated = sess.truncated
	sess.logger.Debug("fetching ends",
		slog.Int("pages", res.Pages),
		slog.Int("requests", res.Requests),
		slog.Bool("complete", res.Complete),
		slog.Bool("truncated", res.Truncated),
	)
	return res
}

// listPage is the part of an issue or pull request page the pagination
// loop needs.
type listPage[N any] struct {
	nodes []N
	info  github.PageInfo
	rate  github.RateLimit
}

// paginate drives reverse pagination for one session. Nodes updated
// strictly before the earliest date are dropped; the rest of that page is
// kept and pagination stops after it.
func paginate[N any](
	ctx context.Context,
	s *Syncer,
	sess *session,
	q Query,
	once bool,
	fetch func(context.Context, github.PageOptions) (listPage[N], error),
	updatedAt func(N) time.Time,
	keep func(N),
) {
	for {
		if s.pageLimit > 0 && sess.pages >= s.pageLimit {
			sess.logger.Info("page threshold reached", slog.Int("pages", sess.pages))
			sess.truncated = true
			return
		}

		opts := github.PageOptions{
			Size:      sess.nextPageSize(),
			Before:    sess.cursor,
			Sort:      q.list.Sort,
			Direction: q.list.Direction,
		}
		var page listPage[N]
		ok := sess.do(ctx, func(ctx context.Context) error {
			p, err := fetch(ctx, opts)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if !ok {
			return
		}

		s.observe(page.rate)
		sess.pages++
		sess.cursor = page.info.StartCursor

		reachedDate := false
		for _, node := range page.nodes {
			if !q.list.EarliestDate.IsZero() && updatedAt(node).Before(q.list.EarliestDate) {
				reachedDate = true
				continue
			}
			keep(node)
		}

		if !page.info.HasPreviousPage || reachedDate || once {
			return
		}
	}
}

func (s *Syncer) fetchIssues(ctx context.Context, q Query, sess *session, once bool, res *Result) {
	paginate(ctx, s, sess, q, once,
		func(ctx context.Context, opts github.PageOptions) (listPage[github.IssueNode], error) {
			p, err := s.client.FetchIssues(ctx, q.owner, q.name, opts)
			if err != nil {
				return listPage[github.IssueNode]{}, err
			}
			return listPage[github.IssueNode]{nodes: p.Nodes, info: p.PageInfo, rate: p.RateLimit}, nil
		},
		func(n github.IssueNode) time.Time { return n.UpdatedAt },
		func(n github.IssueNode) {
			res.Issues = append(res.Issues, MapIssue(q.owner, q.name, n))
		},
	)
}

func (s *Syncer) fetchPullRequests(ctx context.Context, q Query, sess *session, once bool, res *Result) {
	paginate(ctx, s, sess, q, once,
		func(ctx context.Context, opts github.PageOptions) (listPage[github.PullRequestNode], error) {
			p, err := s.client.FetchPullRequests(ctx, q.owner, q.name, opts)
			if err != nil {
				return listPage[github.PullRequestNode]{}, err
			}
			return listPage[github.PullRequestNode]{nodes: p.Nodes, info: p.PageInfo, rate: p.RateLimit}, nil
		},
		func(n github.PullRequestNode) time.Time { return n.UpdatedAt },
		func(n github.PullRequestNode) {
			res.Issues = append(res.Issues, s.pullRequestRecord(ctx, q, n, res))
		},
	)
}

// pullRequestRecord reconciles the comments of one pull request, fetching
// reaction detail first when any comment has reactions.
func (s *Syncer) pullRequestRecord(ctx context.Context, q Query, node github.PullRequestNode, res *Result) IssueRecord {
	comments := node.RawComments()

	if node.HasReactions() {
		opts := ReactionOptions{
			PRNumber:             node.Number,
			ReviewsCount:         min(node.Reviews.TotalCount, maxSubFetchReviews),
			DiscussionsPerReview: min(node.MaxReviewComments(), maxSubFetchDiscussions),
			CommentsCount:        min(node.Comments.TotalCount, maxSubFetchComments),
		}
		sub := newSession(q.Reactions(opts), 0, s.reactionRetry, s.sleep, s.logger)
		sub.logger.Debug("pull request has reactions", slog.Int("number", node.Number))

		detail, ok := s.reactionDetail(ctx, sub, opts)
		res.Requests += sub.requests
		if ok {
			merged, unmatched := MergeReactions(comments, detail.Comments)
			if len(unmatched) > 0 {
				sub.logger.Warn("comments and reactions do not fit",
					slog.Int("number", node.Number),
					slog.Any("unmatched", unmatched),
				)
			}
			comments = merged
		} else {
			sub.logger.Warn("reaction detail unavailable, keeping comments without reactions",
				slog.Int("number", node.Number))
		}
	}

	return MapPullRequest(q.owner, q.name, node, s.reconciler.Reconcile(comments))
}

// reactionDetail runs the reaction query within sess.
func (s *Syncer) reactionDetail(ctx context.Context, sess *session, opts ReactionOptions) (*github.ReactionPage, bool) {
	var page *github.ReactionPage
	ok := sess.do(ctx, func(ctx context.Context) error {
		p, err := s.client.FetchReactions(ctx, sess.owner, sess.name, github.ReactionOptions{
			PRNumber:             opts.PRNumber,
			ReviewsCount:         opts.ReviewsCount,
			DiscussionsPerReview: opts.DiscussionsPerReview,
			CommentsCount:        opts.CommentsCount,
		})
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if !ok {
		return nil, false
	}
	s.observe(page.RateLimit)
	sess.pages++
	return page, true
}

func (s *Syncer) fetchReactions(ctx context.Context, q Query, sess *session, res *Result) {
	page, ok := s.reactionDetail(ctx, sess, q.reactions)
	if !ok {
		return
	}
	res.Comments = make([]CommentRecord, 0, len(page.Comments))
	for _, c := range page.Comments {
		res.Comments = append(res.Comments, MapComment(c))
	}
}

func (s *Syncer) fetchLabels(ctx context.Context, q Query, sess *session, res *Result) {
	var page *github.LabelPage
	ok := sess.do(ctx, func(ctx context.Context) error {
		p, err := s.client.FetchLabels(ctx, q.owner, q.name)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if !ok {
		return
	}
	s.observe(page.RateLimit)
	sess.pages++
	labels := MapLabels(q.owner, q.name, page.Labels)
	res.Labels = &labels
}

func (s *Syncer) observe(rate github.RateLimit) {
	s.tracker.Record(rate.Snapshot())
}
