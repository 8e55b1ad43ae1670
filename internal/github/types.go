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

package github

import (
	"time"

	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
)

// Actor is the author, assignee or owner of an issue.
type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl" graphql:"avatarUrl"`
}

// CommentAuthor is the author of a comment. Name is only populated for
// user accounts; bots and organizations leave it empty.
type CommentAuthor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl" graphql:"avatarUrl"`
	User      struct {
		Name string `json:"name"`
	} `json:"user" graphql:"... on User"`
}

// Milestone as returned on issue and pull request nodes.
type Milestone struct {
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueOn       *time.Time `json:"dueOn"`
	State       string     `json:"state"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
}

// Label is the short label form attached to issues.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RepoLabel is a label from the repository's label list.
type RepoLabel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

// ReactionGroup only carries what the board needs to know whether any
// reaction exists on a comment.
type ReactionGroup struct {
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt"`
}

// Reaction is a single reaction from the reaction detail query. User is
// nil for deleted accounts.
type Reaction struct {
	Content string        `json:"content"`
	User    *ReactionUser `json:"user"`
}

type ReactionUser struct {
	Login string `json:"login"`
}

// PageInfo for reverse pagination.
type PageInfo struct {
	StartCursor     string `json:"startCursor"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

// RateLimit is the rateLimit block requested with every query.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// Snapshot converts the response block into the tracker's form.
func (r RateLimit) Snapshot() ratelimit.Snapshot {
	return ratelimit.Snapshot{Remaining: r.Remaining, Limit: r.Limit, ResetAt: r.ResetAt}
}

// Connection wrappers. GitHub nests list results under nodes.
type (
	ActorConnection struct {
		Nodes []Actor `json:"nodes"`
	}
	LabelConnection struct {
		Nodes []Label `json:"nodes"`
	}
	ReactionConnection struct {
		Nodes []Reaction `json:"nodes"`
	}
	CountConnection struct {
		TotalCount int `json:"totalCount"`
	}
)

// IssueNode is one issue from the issue list query.
type IssueNode struct {
	Number    int             `json:"number"`
	Title     string          `json:"title"`
	BodyText  string          `json:"bodyText"`
	URL       string          `json:"url"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	ClosedAt  *time.Time      `json:"closedAt"`
	Author    *Actor          `json:"author"`
	Assignees ActorConnection `json:"assignees" graphql:"assignees(first: 1)"`
	Milestone *Milestone      `json:"milestone"`
	Labels    LabelConnection `json:"labels" graphql:"labels(first: 100)"`
	Comments  CountConnection `json:"comments"`
}

// ReviewComment is a diff comment inside a pull request review.
type ReviewComment struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	BodyText       string          `json:"bodyText"`
	DiffHunk       string          `json:"diffHunk"`
	Author         *CommentAuthor  `json:"author"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastEditedAt   *time.Time      `json:"lastEditedAt"`
	ReactionGroups []ReactionGroup `json:"reactionGroups"`
}

// IssueComment is a conversation comment on a pull request.
type IssueComment struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	BodyText       string          `json:"bodyText"`
	Author         *CommentAuthor  `json:"author"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastEditedAt   *time.Time      `json:"lastEditedAt"`
	ReactionGroups []ReactionGroup `json:"reactionGroups"`
}

type ReviewCommentConnection struct {
	TotalCount int             `json:"totalCount"`
	Nodes      []ReviewComment `json:"nodes"`
}

type Review struct {
	Comments ReviewCommentConnection `json:"comments" graphql:"comments(first: 50)"`
}

type ReviewConnection struct {
	TotalCount int      `json:"totalCount"`
	Nodes      []Review `json:"nodes"`
}

type IssueCommentConnection struct {
	TotalCount int            `json:"totalCount"`
	Nodes      []IssueComment `json:"nodes"`
}

// PullRequestNode is one pull request from the pull request list query.
type PullRequestNode struct {
	Number    int                    `json:"number"`
	Title     string                 `json:"title"`
	BodyText  string                 `json:"bodyText"`
	URL       string                 `json:"url"`
	State     string                 `json:"state"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	ClosedAt  *time.Time             `json:"closedAt"`
	Author    *Actor                 `json:"author"`
	Assignees ActorConnection        `json:"assignees" graphql:"assignees(first: 1)"`
	Milestone *Milestone             `json:"milestone"`
	Labels    LabelConnection        `json:"labels" graphql:"labels(first: 100)"`
	Reviews   ReviewConnection       `json:"reviews" graphql:"reviews(first: 20)"`
	Comments  IssueCommentConnection `json:"comments" graphql:"comments(first: 100)"`
}

// Issue returns the fields a pull request shares with an issue.
func (p PullRequestNode) Issue() IssueNode {
	return IssueNode{
		Number:    p.Number,
		Title:     p.Title,
		BodyText:  p.BodyText,
		URL:       p.URL,
		State:     p.State,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		ClosedAt:  p.ClosedAt,
		Author:    p.Author,
		Assignees: p.Assignees,
		Milestone: p.Milestone,
		Labels:    p.Labels,
		Comments:  CountConnection{TotalCount: p.Comments.TotalCount},
	}
}

// RawComments flattens review comments, review by review, followed by the
// conversation comments. The reaction detail query returns the same order.
func (p PullRequestNode) RawComments() []RawComment {
	var out []RawComment
	for _, review := range p.Reviews.Nodes {
		for _, c := range review.Comments.Nodes {
			out = append(out, reviewComment(c))
		}
	}
	for _, c := range p.Comments.Nodes {
		out = append(out, issueComment(c))
	}
	return out
}

// HasReactions reports whether any comment carries a reaction group with a
// creation time, which is the only cheap signal that reactions exist.
func (p PullRequestNode) HasReactions() bool {
	for _, c := range p.RawComments() {
		for _, g := range c.ReactionGroups {
			if g.CreatedAt != nil {
				return true
			}
		}
	}
	return false
}

// MaxReviewComments is the largest comment count of any review.
func (p PullRequestNode) MaxReviewComments() int {
	most := 0
	for _, r := range p.Reviews.Nodes {
		if r.Comments.TotalCount > most {
			most = r.Comments.TotalCount
		}
	}
	return most
}

// RawComment is the common form of review and conversation comments.
// DiffHunk is nil for conversation comments.
type RawComment struct {
	ID             string
	URL            string
	BodyText       string
	DiffHunk       *string
	Author         *CommentAuthor
	CreatedAt      time.Time
	LastEditedAt   *time.Time
	ReactionGroups []ReactionGroup
	Reactions      []Reaction
}

func reviewComment(c ReviewComment) RawComment {
	hunk := c.DiffHunk
	return RawComment{
		ID:             c.ID,
		URL:            c.URL,
		BodyText:       c.BodyText,
		DiffHunk:       &hunk,
		Author:         c.Author,
		CreatedAt:      c.CreatedAt,
		LastEditedAt:   c.LastEditedAt,
		ReactionGroups: c.ReactionGroups,
	}
}

func issueComment(c IssueComment) RawComment {
	return RawComment{
		ID:             c.ID,
		URL:            c.URL,
		BodyText:       c.BodyText,
		Author:         c.Author,
		CreatedAt:      c.CreatedAt,
		LastEditedAt:   c.LastEditedAt,
		ReactionGroups: c.ReactionGroups,
	}
}

// PageOptions selects one page of a reverse paginated list.
type PageOptions struct {
	// Size is the number of nodes requested with last:. Capped at 100.
	Size int

	// Before is the startCursor of the previous page. Empty fetches the
	// newest page.
	Before string

	// Sort is an IssueOrderField such as CREATED_AT or UPDATED_AT.
	Sort string

	// Direction is ASC or DESC.
	Direction string
}

// ReactionOptions bounds the reaction detail query for one pull request.
type ReactionOptions struct {
	PRNumber             int
	ReviewsCount         int
	DiscussionsPerReview int
	CommentsCount        int
}

// IssuePage is one page of issues.
type IssuePage struct {
	Nodes     []IssueNode
	PageInfo  PageInfo
	RateLimit RateLimit
}

// PullRequestPage is one page of pull requests.
type PullRequestPage struct {
	Nodes     []PullRequestNode
	PageInfo  PageInfo
	RateLimit RateLimit
}

// LabelPage holds the repository labels.
type LabelPage struct {
	Labels    []RepoLabel
	RateLimit RateLimit
}

// ReactionPage holds every comment of one pull request with its reactions,
// in the same order as PullRequestNode.RawComments.
type ReactionPage struct {
	Comments  []RawComment
	RateLimit RateLimit
}

// ReactionChange is the payload of a successful reaction mutation.
type ReactionChange struct {
	Content   string `json:"content"`
	SubjectID string `json:"subjectId"`
}

// RepositoryInfo is the REST metadata used for the repository summary.
type RepositoryInfo struct {
	Owner     string
	Name      string
	IsPrivate bool
}

const (
	// MaxPageSize is GitHub's cap on last: and first:.
	MaxPageSize = 100
)
