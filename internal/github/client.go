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

import "context"

// Client is the GitHub API surface the board's sync layer needs. Every
// method performs exactly one request; paging, retries and merging belong
// to the caller.
type Client interface {
	// FetchIssues retrieves one page of issues, newest page first, going
	// backwards from opts.Before.
	FetchIssues(ctx context.Context, owner, repo string, opts PageOptions) (*IssuePage, error)

	// FetchPullRequests retrieves one page of pull requests with their
	// reviews, review comments and conversation comments.
	FetchPullRequests(ctx context.Context, owner, repo string, opts PageOptions) (*PullRequestPage, error)

	// FetchLabels retrieves the repository's labels.
	FetchLabels(ctx context.Context, owner, repo string) (*LabelPage, error)

	// FetchReactions retrieves full reaction detail for every comment of a
	// single pull request.
	FetchReactions(ctx context.Context, owner, repo string, opts ReactionOptions) (*ReactionPage, error)

	// AddReaction adds a reaction of the given content to a comment.
	AddReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error)

	// RemoveReaction removes the viewer's reaction from a comment.
	RemoveReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error)
}

// RepositoryInfoClient looks up repository metadata not exposed by the
// list queries.
type RepositoryInfoClient interface {
	GetRepositoryInfo(ctx context.Context, owner, repo string) (*RepositoryInfo, error)
}
