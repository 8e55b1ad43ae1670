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
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/shurcooL/graphql"

	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/giterror"
)

// DefaultGraphQLEndpoint is github.com's GraphQL API.
const DefaultGraphQLEndpoint = "https://api.github.com/graphql"

// defaultTimeout bounds a single request. Page retries are handled by the
// sync layer, so a hung request only costs one attempt.
const defaultTimeout = 60 * time.Second

// GraphQLClient implements Client against GitHub's GraphQL API.
type GraphQLClient struct {
	client    *graphql.Client
	inspector giterror.Inspector
}

// NewGraphQLClient creates a client for endpoint. An empty token sends
// unauthenticated requests.
func NewGraphQLClient(token, endpoint string) *GraphQLClient {
	if endpoint == "" {
		endpoint = DefaultGraphQLEndpoint
	}
	return &GraphQLClient{
		client:    graphql.NewClient(endpoint, newHTTPClient(token, defaultTimeout)),
		inspector: giterror.NewErrorChainInspector(giterror.NewInspector()),
	}
}

type issuesQuery struct {
	Repository *struct {
		Issues struct {
			PageInfo PageInfo
			Nodes    []IssueNode
		} `graphql:"issues(last: $perPage, before: $before, orderBy: $orderBy)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit RateLimit
}

type pullRequestsQuery struct {
	Repository *struct {
		PullRequests struct {
			PageInfo PageInfo
			Nodes    []PullRequestNode
		} `graphql:"pullRequests(last: $perPage, before: $before, orderBy: $orderBy)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit RateLimit
}

type labelsQuery struct {
	Repository *struct {
		Labels struct {
			Nodes []RepoLabel
		} `graphql:"labels(first: 100)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit RateLimit
}

type reactionComment struct {
	ID           string
	URL          string
	BodyText     string
	Author       *CommentAuthor
	CreatedAt    time.Time
	LastEditedAt *time.Time
	Reactions    ReactionConnection `graphql:"reactions(first: 100)"`
}

func (c reactionComment) raw() RawComment {
	return RawComment{
		ID:           c.ID,
		URL:          c.URL,
		BodyText:     c.BodyText,
		Author:       c.Author,
		CreatedAt:    c.CreatedAt,
		LastEditedAt: c.LastEditedAt,
		Reactions:    c.Reactions.Nodes,
	}
}

type reactionsQuery struct {
	Repository *struct {
		PullRequest *struct {
			Reviews struct {
				Nodes []struct {
					Comments struct {
						Nodes []reactionComment
					} `graphql:"comments(first: $discussions)"`
				}
			} `graphql:"reviews(first: $reviews)"`
			Comments struct {
				Nodes []reactionComment
			} `graphql:"comments(first: $comments)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit RateLimit
}

type reactionPayload struct {
	Reaction struct {
		Content string
	}
	Subject struct {
		ID string
	}
}

func (p reactionPayload) change() *ReactionChange {
	return &ReactionChange{Content: p.Reaction.Content, SubjectID: p.Subject.ID}
}

// pageVariables builds the variables shared by the issue and pull request
// list queries.
func pageVariables(owner, repo string, opts PageOptions) map[string]interface{} {
	size := opts.Size
	if size <= 0 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	sort := opts.Sort
	if sort == "" {
		sort = string(githubv4.IssueOrderFieldCreatedAt)
	}
	direction := opts.Direction
	if direction == "" {
		direction = string(githubv4.OrderDirectionAsc)
	}

	variables := map[string]interface{}{
		"owner":   graphql.String(owner),
		"name":    graphql.String(repo),
		"perPage": graphql.Int(int32(size)), // #nosec G115 - size is capped at 100
		"before":  (*graphql.String)(nil),
		"orderBy": githubv4.IssueOrder{
			Field:     githubv4.IssueOrderField(sort),
			Direction: githubv4.OrderDirection(direction),
		},
	}
	if opts.Before != "" {
		variables["before"] = graphql.String(opts.Before)
	}
	return variables
}

// FetchIssues fetches one page of issues going backwards from opts.Before.
func (c *GraphQLClient) FetchIssues(ctx context.Context, owner, repo string, opts PageOptions) (*IssuePage, error) {
	var query issuesQuery
	if err := c.client.Query(ctx, &query, pageVariables(owner, repo, opts)); err != nil {
		return nil, c.mapError(err, "repository "+owner+"/"+repo)
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("issues of %s/%s: %w", owner, repo, boarderrors.ErrEmptyResponse)
	}

	return &IssuePage{
		Nodes:     query.Repository.Issues.Nodes,
		PageInfo:  query.Repository.Issues.PageInfo,
		RateLimit: query.RateLimit,
	}, nil
}

// FetchPullRequests fetches one page of pull requests going backwards from
// opts.Before. Review and conversation comments come with reaction groups
// only; full reactions need FetchReactions.
func (c *GraphQLClient) FetchPullRequests(ctx context.Context, owner, repo string, opts PageOptions) (*PullRequestPage, error) {
	var query pullRequestsQuery
	if err := c.client.Query(ctx, &query, pageVariables(owner, repo, opts)); err != nil {
		return nil, c.mapError(err, "repository "+owner+"/"+repo)
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("pull requests of %s/%s: %w", owner, repo, boarderrors.ErrEmptyResponse)
	}

	return &PullRequestPage{
		Nodes:     query.Repository.PullRequests.Nodes,
		PageInfo:  query.Repository.PullRequests.PageInfo,
		RateLimit: query.RateLimit,
	}, nil
}

// FetchLabels fetches up to 100 labels of the repository.
func (c *GraphQLClient) FetchLabels(ctx context.Context, owner, repo string) (*LabelPage, error) {
	var query labelsQuery
	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"name":  graphql.String(repo),
	}
	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, "repository "+owner+"/"+repo)
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("labels of %s/%s: %w", owner, repo, boarderrors.ErrEmptyResponse)
	}

	return &LabelPage{
		Labels:    query.Repository.Labels.Nodes,
		RateLimit: query.RateLimit,
	}, nil
}

// FetchReactions fetches every review comment and conversation comment of
// one pull request together with their reactions.
func (c *GraphQLClient) FetchReactions(ctx context.Context, owner, repo string, opts ReactionOptions) (*ReactionPage, error) {
	var query reactionsQuery
	// #nosec G115 - counts are clamped to 1..100
	variables := map[string]interface{}{
		"owner":       graphql.String(owner),
		"name":        graphql.String(repo),
		"number":      graphql.Int(int32(opts.PRNumber)),
		"reviews":     graphql.Int(int32(clamp(opts.ReviewsCount))),
		"discussions": graphql.Int(int32(clamp(opts.DiscussionsPerReview))),
		"comments":    graphql.Int(int32(clamp(opts.CommentsCount))),
	}
	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, fmt.Sprintf("pull request %s/%s#%d", owner, repo, opts.PRNumber))
	}
	if query.Repository == nil || query.Repository.PullRequest == nil {
		return nil, fmt.Errorf("reactions of %s/%s#%d: %w", owner, repo, opts.PRNumber, boarderrors.ErrEmptyResponse)
	}

	pr := query.Repository.PullRequest
	page := &ReactionPage{RateLimit: query.RateLimit}
	for _, review := range pr.Reviews.Nodes {
		for _, comment := range review.Comments.Nodes {
			page.Comments = append(page.Comments, comment.raw())
		}
	}
	for _, comment := range pr.Comments.Nodes {
		page.Comments = append(page.Comments, comment.raw())
	}
	return page, nil
}

// AddReaction adds a reaction to a comment or issue.
func (c *GraphQLClient) AddReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error) {
	var m struct {
		AddReaction reactionPayload `graphql:"addReaction(input: $input)"`
	}
	input := githubv4.AddReactionInput{
		SubjectID: githubv4.ID(subjectID),
		Content:   githubv4.ReactionContent(content),
	}
	if err := c.client.Mutate(ctx, &m, map[string]interface{}{"input": input}); err != nil {
		return nil, c.mapError(err, "subject "+subjectID)
	}
	return m.AddReaction.change(), nil
}

// RemoveReaction removes the viewer's reaction from a comment or issue.
// GitHub answers with a permission error when the reaction was not made by
// the token's user.
func (c *GraphQLClient) RemoveReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error) {
	var m struct {
		RemoveReaction reactionPayload `graphql:"removeReaction(input: $input)"`
	}
	input := githubv4.RemoveReactionInput{
		SubjectID: githubv4.ID(subjectID),
		Content:   githubv4.ReactionContent(content),
	}
	if err := c.client.Mutate(ctx, &m, map[string]interface{}{"input": input}); err != nil {
		return nil, c.mapError(err, "subject "+subjectID)
	}
	return m.RemoveReaction.change(), nil
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// mapError maps GraphQL and transport errors to the sentinel errors while
// keeping the provider message.
func (c *GraphQLClient) mapError(err error, target string) error {
	if err == nil {
		return nil
	}

	// Rate limit first: GitHub reports some rate limits as 403.
	if c.inspector.IsRateLimitError(err) {
		return fmt.Errorf("%w: %w", err, boarderrors.ErrRateLimit)
	}

	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("%w: %w", err, boarderrors.ErrInvalidToken)
	}

	if c.inspector.IsPermissionError(err) {
		return fmt.Errorf("%s: %w: %w", target, err, boarderrors.ErrPermissionDenied)
	}

	if c.inspector.IsNotFoundError(err) {
		return fmt.Errorf("%s not found: %w: %w", target, err, boarderrors.ErrRepoNotFound)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("%w: %w", err, boarderrors.ErrNetworkFailure)
	}

	return fmt.Errorf("query %s: %w", target, err)
}
