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

package testutil

import (
	"fmt"
	"time"
)

// Node is one GraphQL node as the fake server encodes it.
type Node = map[string]interface{}

// IssueBuilder provides a fluent API for creating issue and pull request
// nodes.
type IssueBuilder struct {
	number    int
	title     string
	state     string
	author    string
	createdAt time.Time
	updatedAt time.Time
	closedAt  *time.Time
	labels    []string
	reviews   []Node
	comments  []Node
}

// NewIssueBuilder creates an open issue updated at updated.
func NewIssueBuilder(number int, updated time.Time) *IssueBuilder {
	return &IssueBuilder{
		number:    number,
		title:     fmt.Sprintf("Issue %d", number),
		state:     "OPEN",
		author:    fmt.Sprintf("user%d", number),
		createdAt: updated.Add(-time.Hour),
		updatedAt: updated,
	}
}

// WithState sets the state (OPEN, CLOSED, MERGED).
func (b *IssueBuilder) WithState(state string) *IssueBuilder {
	b.state = state
	if state != "OPEN" {
		closed := b.updatedAt
		b.closedAt = &closed
	}
	return b
}

// WithLabels sets the label names.
func (b *IssueBuilder) WithLabels(labels ...string) *IssueBuilder {
	b.labels = labels
	return b
}

// WithReviewComment adds a review holding a single diff comment.
func (b *IssueBuilder) WithReviewComment(id, author, body string) *IssueBuilder {
	b.reviews = append(b.reviews, Node{
		"comments": Node{
			"totalCount": 1,
			"nodes":      []Node{comment(id, author, body, b.createdAt, true)},
		},
	})
	return b
}

// WithComment adds a conversation comment.
func (b *IssueBuilder) WithComment(id, author, body string) *IssueBuilder {
	b.comments = append(b.comments, comment(id, author, body, b.createdAt, false))
	return b
}

func comment(id, author, body string, created time.Time, review bool) Node {
	c := Node{
		"id":             id,
		"url":            "https://github.com/octo/board/pull/1#" + id,
		"bodyText":       body,
		"author":         Node{"login": author, "avatarUrl": "https://avatars.githubusercontent.com/" + author},
		"createdAt":      created.Format(time.RFC3339),
		"lastEditedAt":   nil,
		"reactionGroups": []Node{},
	}
	if review {
		c["diffHunk"] = "@@ -1,3 +1,3 @@"
	}
	return c
}

func (b *IssueBuilder) base() Node {
	labels := make([]Node, 0, len(b.labels))
	for _, l := range b.labels {
		labels = append(labels, Node{"name": l, "color": "ededed"})
	}
	var closed interface{}
	if b.closedAt != nil {
		closed = b.closedAt.Format(time.RFC3339)
	}
	return Node{
		"number":    b.number,
		"title":     b.title,
		"bodyText":  "body of " + b.title,
		"url":       fmt.Sprintf("https://github.com/octo/board/issues/%d", b.number),
		"state":     b.state,
		"createdAt": b.createdAt.Format(time.RFC3339),
		"updatedAt": b.updatedAt.Format(time.RFC3339),
		"closedAt":  closed,
		"author":    Node{"login": b.author, "avatarUrl": "https://avatars.githubusercontent.com/" + b.author},
		"assignees": Node{"nodes": []Node{}},
		"milestone": nil,
		"labels":    Node{"nodes": labels},
	}
}

// Issue builds an issue node.
func (b *IssueBuilder) Issue() Node {
	n := b.base()
	n["comments"] = Node{"totalCount": len(b.comments)}
	return n
}

// PullRequest builds a pull request node with its reviews and comments.
func (b *IssueBuilder) PullRequest() Node {
	n := b.base()
	n["url"] = fmt.Sprintf("https://github.com/octo/board/pull/%d", b.number)
	reviews := append([]Node{}, b.reviews...)
	comments := append([]Node{}, b.comments...)
	n["reviews"] = Node{"totalCount": len(reviews), "nodes": reviews}
	n["comments"] = Node{"totalCount": len(comments), "nodes": comments}
	return n
}

// GenerateIssues creates n issue nodes numbered from first, oldest first,
// the newest updated at newest and each one before it a minute older.
func GenerateIssues(first, n int, newest time.Time) []Node {
	nodes := make([]Node, n)
	for i := 0; i < n; i++ {
		updated := newest.Add(-time.Duration(n-1-i) * time.Minute)
		nodes[i] = NewIssueBuilder(first+i, updated).WithLabels("bug").Issue()
	}
	return nodes
}
