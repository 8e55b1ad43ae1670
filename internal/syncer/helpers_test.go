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
	"sync"
	"time"

	"github.com/sirseerhq/sirseer-board/internal/github"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// sleepRecorder replaces real sleeps and remembers the requested pauses.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waits)
}

func ptrTime(t time.Time) *time.Time { return &t }

func reviewComment(id, body, login string) github.ReviewComment {
	c := github.ReviewComment{
		ID:        id,
		URL:       "https://github.com/octo/board/pull/1#discussion_" + id,
		BodyText:  body,
		DiffHunk:  "@@ -1 +1 @@",
		CreatedAt: testNow.Add(-time.Hour),
	}
	if login != "" {
		c.Author = &github.CommentAuthor{Login: login}
	}
	return c
}

func issueComment(id, body, login string) github.IssueComment {
	c := github.IssueComment{
		ID:        id,
		URL:       "https://github.com/octo/board/pull/1#issuecomment-" + id,
		BodyText:  body,
		CreatedAt: testNow.Add(-time.Hour),
	}
	if login != "" {
		c.Author = &github.CommentAuthor{Login: login}
	}
	return c
}

func reacted(c github.IssueComment) github.IssueComment {
	c.ReactionGroups = []github.ReactionGroup{{Content: "HEART", CreatedAt: ptrTime(testNow)}}
	return c
}

func reactionsOf(kinds ...string) []github.Reaction {
	out := make([]github.Reaction, len(kinds))
	for i, k := range kinds {
		out[i] = github.Reaction{Content: k}
	}
	return out
}

func pullRequest(number int, updated time.Time, reviews []github.ReviewComment, comments []github.IssueComment) github.PullRequestNode {
	pr := github.PullRequestNode{
		Number:    number,
		Title:     "PR",
		URL:       "https://github.com/octo/board/pull/1",
		State:     "OPEN",
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
		Comments:  github.IssueCommentConnection{TotalCount: len(comments), Nodes: comments},
	}
	if len(reviews) > 0 {
		pr.Reviews = github.ReviewConnection{
			TotalCount: 1,
			Nodes: []github.Review{{
				Comments: github.ReviewCommentConnection{TotalCount: len(reviews), Nodes: reviews},
			}},
		}
	}
	return pr
}
