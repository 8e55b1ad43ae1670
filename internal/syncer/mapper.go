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
	"strings"

	"github.com/sirseerhq/sirseer-board/internal/github"
)

// MapIssue converts an issue node into a record of owner/name.
func MapIssue(owner, name string, node github.IssueNode) IssueRecord {
	user := mapActor(node.Author)

	var assignee *User
	if len(node.Assignees.Nodes) > 0 {
		assignee = mapActor(&node.Assignees.Nodes[0])
	}

	var milestone *Milestone
	if m := node.Milestone; m != nil {
		milestone = &Milestone{
			Title:       m.Title,
			CreatedAt:   m.CreatedAt,
			DueOn:       m.DueOn,
			State:       strings.ToLower(m.State),
			HTMLURL:     m.URL,
			Description: m.Description,
		}
	}

	labels := make([]LabelRef, 0, len(node.Labels.Nodes))
	for _, l := range node.Labels.Nodes {
		labels = append(labels, LabelRef{Name: l.Name, Color: l.Color})
	}

	return IssueRecord{
		RepoOwner:   owner,
		RepoName:    name,
		UpdatedAtMs: node.UpdatedAt.UnixMilli(),
		Issue: Issue{
			HTMLURL:   node.URL,
			Number:    node.Number,
			Title:     node.Title,
			Body:      node.BodyText,
			Comments:  node.Comments.TotalCount,
			CreatedAt: node.CreatedAt,
			UpdatedAt: node.UpdatedAt,
			ClosedAt:  node.ClosedAt,
			State:     mapState(node.State),
			User:      user,
			Owner:     user,
			Assignee:  assignee,
			Milestone: milestone,
			Labels:    labels,
		},
	}
}

// MapPullRequest converts a pull request node and its reconciled comments.
func MapPullRequest(owner, name string, node github.PullRequestNode, comments []CommentRecord) IssueRecord {
	record := MapIssue(owner, name, node.Issue())
	if comments == nil {
		comments = []CommentRecord{}
	}
	record.Issue.PullRequest = &PullRequest{
		HTMLURL:  node.URL,
		Comments: comments,
	}
	return record
}

// MapComment converts a raw comment without filtering it.
func MapComment(c github.RawComment) CommentRecord {
	record := CommentRecord{
		ID:           c.ID,
		URL:          c.URL,
		BodyText:     c.BodyText,
		DiffHunk:     c.DiffHunk,
		CreatedAt:    c.CreatedAt,
		LastEditedAt: c.LastEditedAt,
		UpdatedAt:    c.CreatedAt,
	}
	if c.LastEditedAt != nil {
		record.UpdatedAt = *c.LastEditedAt
	}
	if a := c.Author; a != nil {
		record.Author = &CommentAuthor{
			Login:     a.Login,
			AvatarURL: a.AvatarURL,
			Name:      a.User.Name,
		}
	}
	for _, r := range c.Reactions {
		reaction := ReactionRecord{Content: ReactionKind(r.Content)}
		if r.User != nil {
			reaction.User = &ReactionUser{Login: r.User.Login}
		}
		record.Reactions = append(record.Reactions, reaction)
	}
	return record
}

// MapLabels converts the repository label list.
func MapLabels(owner, name string, labels []github.RepoLabel) RepoLabels {
	out := RepoLabels{
		RepoOwner: owner,
		RepoName:  name,
		Labels:    make([]LabelRecord, 0, len(labels)),
	}
	for _, l := range labels {
		out.Labels = append(out.Labels, LabelRecord{
			ID:      l.ID,
			Name:    l.Name,
			Color:   l.Color,
			Default: l.IsDefault,
		})
	}
	return out
}

func mapActor(a *github.Actor) *User {
	if a == nil {
		return nil
	}
	return &User{Login: a.Login, AvatarURL: a.AvatarURL}
}

// mapState folds GitHub's states into the two columns the board knows.
// Merged pull requests are closed.
func mapState(state string) string {
	if strings.EqualFold(state, "OPEN") {
		return "open"
	}
	return "closed"
}
