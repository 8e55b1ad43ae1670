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
	"fmt"
	"strings"
	"time"
)

// ReactionKind is the content of a GitHub reaction.
type ReactionKind string

const (
	ThumbsUp   ReactionKind = "THUMBS_UP"
	ThumbsDown ReactionKind = "THUMBS_DOWN"
	Laugh      ReactionKind = "LAUGH"
	Hooray     ReactionKind = "HOORAY"
	Confused   ReactionKind = "CONFUSED"
	Heart      ReactionKind = "HEART"
)

// ReactionKinds lists the kinds in the order the review card shows them.
var ReactionKinds = []ReactionKind{ThumbsUp, ThumbsDown, Laugh, Hooray, Confused, Heart}

// ParseReactionKind accepts a kind in any case, e.g. "heart" or "THUMBS_UP".
func ParseReactionKind(s string) (ReactionKind, error) {
	k := ReactionKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ReactionKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown reaction %q: want one of %v", s, ReactionKinds)
}

// User is the author, owner or assignee of an issue.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// Milestone of an issue. State is lower-cased.
type Milestone struct {
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueOn       *time.Time `json:"dueOn"`
	State       string     `json:"state"`
	HTMLURL     string     `json:"htmlUrl"`
	Description string     `json:"description"`
}

// LabelRef is a label as attached to an issue.
type LabelRef struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue holds the card fields of an issue or pull request. Absent values
// are nil pointers and encode as null.
type Issue struct {
	HTMLURL     string       `json:"htmlUrl"`
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Comments    int          `json:"comments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	ClosedAt    *time.Time   `json:"closedAt"`
	State       string       `json:"state"`
	User        *User        `json:"user"`
	Owner       *User        `json:"owner"`
	Assignee    *User        `json:"assignee"`
	Milestone   *Milestone   `json:"milestone"`
	Labels      []LabelRef   `json:"labels"`
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
}

// PullRequest is present on records that are pull requests.
type PullRequest struct {
	HTMLURL  string          `json:"htmlUrl"`
	Comments []CommentRecord `json:"comments"`
}

// IssueRecord is one issue or pull request of a repository.
type IssueRecord struct {
	RepoOwner   string `json:"repoOwner"`
	RepoName    string `json:"repoName"`
	UpdatedAtMs int64  `json:"updatedAtMs"`
	Issue       Issue  `json:"issue"`
}

// RecordKey identifies a record. Fetching the same number again replaces
// the record with that key.
type RecordKey struct {
	Owner  string
	Name   string
	Number int
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Owner, k.Name, k.Number)
}

// Key returns the natural key of the record.
func (r IssueRecord) Key() RecordKey {
	return RecordKey{Owner: r.RepoOwner, Name: r.RepoName, Number: r.Issue.Number}
}

// IsPullRequest reports whether the record came from the pull request list.
func (r IssueRecord) IsPullRequest() bool {
	return r.Issue.PullRequest != nil
}

// CommentAuthor is nil on comments by deleted accounts.
type CommentAuthor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	Name      string `json:"name,omitempty"`
}

// ReactionUser is nil for reactions by deleted accounts.
type ReactionUser struct {
	Login string `json:"login"`
}

// ReactionRecord is a single reaction on a comment.
type ReactionRecord struct {
	Content ReactionKind  `json:"content"`
	User    *ReactionUser `json:"user"`
}

// CommentRecord is a review or conversation comment of a pull request.
// UpdatedAt is LastEditedAt when the comment was edited, else CreatedAt;
// GitHub's own updatedAt for comments is not used.
type CommentRecord struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	BodyText     string           `json:"bodyText"`
	DiffHunk     *string          `json:"diffHunk"`
	Author       *CommentAuthor   `json:"author"`
	Reactions    []ReactionRecord `json:"reactions,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastEditedAt *time.Time       `json:"lastEditedAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ReactionStats counts the comment's reactions per kind. Kinds without
// reactions are absent.
func (c CommentRecord) ReactionStats() map[ReactionKind]int {
	stats := make(map[ReactionKind]int)
	for _, r := range c.Reactions {
		stats[r.Content]++
	}
	return stats
}

// ReactedBy reports whether login reacted with kind.
func (c CommentRecord) ReactedBy(login string, kind ReactionKind) bool {
	for _, r := range c.Reactions {
		if r.Content == kind && r.User != nil && r.User.Login == login {
			return true
		}
	}
	return false
}

// LabelRecord is a label of a repository.
type LabelRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Default bool   `json:"default"`
}

// RepoLabels holds every label of one repository.
type RepoLabels struct {
	RepoOwner string        `json:"repoOwner"`
	RepoName  string        `json:"repoName"`
	Labels    []LabelRecord `json:"labels"`
}
