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
	"github.com/sirseerhq/sirseer-board/internal/filter"
	"github.com/sirseerhq/sirseer-board/internal/github"
)

// Reconciler turns the raw comments of a pull request into the records
// shown on its review card.
type Reconciler struct {
	filter *filter.Filter
}

// NewReconciler creates a reconciler. A nil filter keeps every comment.
func NewReconciler(f *filter.Filter) *Reconciler {
	return &Reconciler{filter: f}
}

// Reconcile drops ignored comments and maps the rest, preserving order.
func (r *Reconciler) Reconcile(raw []github.RawComment) []CommentRecord {
	out := make([]CommentRecord, 0, len(raw))
	for _, c := range raw {
		login := ""
		if c.Author != nil {
			login = c.Author.Login
		}
		if r.filter.Excludes(login, c.BodyText) {
			continue
		}
		out = append(out, MapComment(c))
	}
	return out
}

// MergeReactions returns a copy of comments with the reactions of the
// detail comment sharing its id. Comments with no counterpart in detail are
// returned unchanged and their ids listed in unmatched.
func MergeReactions(comments, detail []github.RawComment) (merged []github.RawComment, unmatched []string) {
	byID := make(map[string][]github.Reaction, len(detail))
	for _, d := range detail {
		byID[d.ID] = d.Reactions
	}

	merged = make([]github.RawComment, len(comments))
	for i, c := range comments {
		merged[i] = c
		reactions, ok := byID[c.ID]
		if !ok {
			unmatched = append(unmatched, c.ID)
			continue
		}
		merged[i].Reactions = reactions
	}
	return merged, unmatched
}
