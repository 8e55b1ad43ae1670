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
	"time"
)

// Kind selects the resource a Query fetches.
type Kind int

const (
	KindNone Kind = iota
	KindIssues
	KindPullRequests
	KindLabels
	KindReactions
)

func (k Kind) String() string {
	switch k {
	case KindIssues:
		return "issues"
	case KindPullRequests:
		return "pull_requests"
	case KindLabels:
		return "labels"
	case KindReactions:
		return "reactions"
	default:
		return "none"
	}
}

// Sort fields and directions accepted by ListOptions.
const (
	SortCreatedAt = "CREATED_AT"
	SortUpdatedAt = "UPDATED_AT"
	SortComments  = "COMMENTS"

	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

// ListOptions configures an issue or pull request list.
type ListOptions struct {
	// Sort defaults to CREATED_AT.
	Sort string

	// Direction defaults to ASC.
	Direction string

	// EarliestDate drops records updated strictly before it and stops
	// pagination after the page where that happened. Zero means no bound.
	EarliestDate time.Time
}

// ReactionOptions configures the reaction detail of one pull request.
type ReactionOptions struct {
	PRNumber             int
	ReviewsCount         int
	DiscussionsPerReview int
	CommentsCount        int
}

// Defaults for ReactionOptions counts left at zero.
const (
	DefaultReviewsCount         = 20
	DefaultDiscussionsPerReview = 10
	DefaultCommentsCount        = 20
)

func (o ReactionOptions) withDefaults() ReactionOptions {
	if o.ReviewsCount <= 0 {
		o.ReviewsCount = DefaultReviewsCount
	}
	if o.DiscussionsPerReview <= 0 {
		o.DiscussionsPerReview = DefaultDiscussionsPerReview
	}
	if o.CommentsCount <= 0 {
		o.CommentsCount = DefaultCommentsCount
	}
	return o
}

// Query describes what to fetch. It is an immutable value: every method
// returns a modified copy, so one Query can seed several fetches.
//
//	q := syncer.Repo("octo", "board").PullRequests(syncer.ListOptions{Sort: syncer.SortUpdatedAt})
//	res, err := s.FetchAll(ctx, q, syncer.FetchOptions{PerPage: 100})
type Query struct {
	owner     string
	name      string
	kind      Kind
	list      ListOptions
	reactions ReactionOptions
}

// Repo starts a query for owner/name.
func Repo(owner, name string) Query {
	return Query{owner: owner, name: name}
}

// Repo binds the target repository.
func (q Query) Repo(owner, name string) Query {
	q.owner = owner
	q.name = name
	return q
}

// Issues selects the issue list.
func (q Query) Issues(opts ListOptions) Query {
	q.kind = KindIssues
	q.list = opts.withDefaults()
	return q
}

// PullRequests selects the pull request list.
func (q Query) PullRequests(opts ListOptions) Query {
	q.kind = KindPullRequests
	q.list = opts.withDefaults()
	return q
}

// Labels selects the repository's labels.
func (q Query) Labels() Query {
	q.kind = KindLabels
	return q
}

// Reactions selects the reaction detail of one pull request.
func (q Query) Reactions(opts ReactionOptions) Query {
	q.kind = KindReactions
	q.reactions = opts.withDefaults()
	return q
}

func (q Query) Owner() string { return q.owner }
func (q Query) Name() string  { return q.name }
func (q Query) Kind() Kind    { return q.kind }

// ListOptions returns the list options with defaults applied.
func (q Query) ListOptions() ListOptions { return q.list }

func (o ListOptions) withDefaults() ListOptions {
	if o.Sort == "" {
		o.Sort = SortCreatedAt
	}
	if o.Direction == "" {
		o.Direction = DirectionAsc
	}
	return o
}

// FetchOptions applies to a single terminal call.
type FetchOptions struct {
	// PerPage is the page size slow start converges to. Defaults to 100.
	PerPage int
}

// Result is what a terminal call accumulated. Only the field matching
// Kind is set.
type Result struct {
	Kind Kind

	// Issues holds issue or pull request records in provider order.
	Issues []IssueRecord

	// Labels is set for label queries.
	Labels *RepoLabels

	// Comments holds the comments of a reaction query with their
	// reactions: review comments first, then conversation comments.
	Comments []CommentRecord

	// Pages counts successfully fetched pages.
	Pages int

	// Requests counts every request made, including failed ones and
	// reaction sub-fetches.
	Requests int

	// Warnings counts failed requests of the session.
	Warnings int

	// Complete is false when the session stopped on the warning
	// threshold or a cancelled context; the data is then partial.
	Complete bool

	// Truncated is true when the page cap stopped a list that still had
	// earlier pages. Records beyond the last page fetched were not seen.
	Truncated bool
}
