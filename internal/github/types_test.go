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
	"testing"
	"time"
)

func TestPullRequestNodeHelpers(t *testing.T) {
	reacted := time.Date(2024, 2, 4, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		node          PullRequestNode
		wantComments  []string
		wantReactions bool
		wantMax       int
	}{
		{
			name: "no reviews and no comments",
		},
		{
			name: "reaction groups without timestamps",
			node: PullRequestNode{
				Comments: IssueCommentConnection{TotalCount: 1, Nodes: []IssueComment{
					{ID: "IC_1", ReactionGroups: []ReactionGroup{{Content: "HEART"}}},
				}},
			},
			wantComments: []string{"IC_1"},
		},
		{
			name: "reviews come before conversation comments",
			node: PullRequestNode{
				Reviews: ReviewConnection{TotalCount: 2, Nodes: []Review{
					{Comments: ReviewCommentConnection{TotalCount: 1, Nodes: []ReviewComment{{ID: "R1"}}}},
					{Comments: ReviewCommentConnection{TotalCount: 3, Nodes: []ReviewComment{
						{ID: "R2"},
						{ID: "R3", ReactionGroups: []ReactionGroup{{Content: "LAUGH", CreatedAt: &reacted}}},
					}}},
				}},
				Comments: IssueCommentConnection{TotalCount: 1, Nodes: []IssueComment{{ID: "IC_1"}}},
			},
			wantComments:  []string{"R1", "R2", "R3", "IC_1"},
			wantReactions: true,
			wantMax:       3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := tt.node.RawComments()
			if len(comments) != len(tt.wantComments) {
				t.Fatalf("got %d comments, want %d", len(comments), len(tt.wantComments))
			}
			for i, id := range tt.wantComments {
				if comments[i].ID != id {
					t.Errorf("comment %d = %s, want %s", i, comments[i].ID, id)
				}
			}
			if got := tt.node.HasReactions(); got != tt.wantReactions {
				t.Errorf("HasReactions() = %v, want %v", got, tt.wantReactions)
			}
			if got := tt.node.MaxReviewComments(); got != tt.wantMax {
				t.Errorf("MaxReviewComments() = %d, want %d", got, tt.wantMax)
			}
		})
	}
}

func TestPullRequestNodeIssue(t *testing.T) {
	pr := PullRequestNode{
		Number:   3,
		Title:    "t",
		State:    "OPEN",
		Comments: IssueCommentConnection{TotalCount: 5},
	}
	issue := pr.Issue()
	if issue.Number != 3 || issue.Title != "t" || issue.Comments.TotalCount != 5 {
		t.Errorf("Issue() = %+v", issue)
	}
}
