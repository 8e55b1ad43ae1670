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

package state

import (
	"errors"
	"time"
)

// CurrentVersion is the current state schema version.
// Increment this when making breaking changes to the SyncState structure.
const CurrentVersion = 1

// ErrNoState is returned by LoadState when a repository was never synced.
var ErrNoState = errors.New("no previous sync state")

// SyncState is the persisted progress of one repository.
type SyncState struct {
	// Version indicates the schema version of this state file.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the state content (excluding this field).
	Checksum string `json:"checksum"`

	// Repository in "owner/name" format.
	Repository string `json:"repository"`

	// LastSyncID identifies the sync run that wrote the state.
	LastSyncID string `json:"last_sync_id"`

	// IssuesSeenAt and PullRequestsSeenAt are the newest updatedAt of
	// the records fetched so far. The next incremental sync uses them as
	// its earliest date.
	IssuesSeenAt       time.Time `json:"issues_seen_at"`
	PullRequestsSeenAt time.Time `json:"pull_requests_seen_at"`

	LastSyncTime time.Time `json:"last_sync_time"`
	TotalSynced  int       `json:"total_synced"`
}

// Advance records a sync. A cutoff only moves forward and only when its
// list was fetched completely, so an aborted fetch is repeated from the
// same point next time.
func (s *SyncState) Advance(issuesSeen, prsSeen time.Time, issuesComplete, prsComplete bool) {
	if issuesComplete && issuesSeen.After(s.IssuesSeenAt) {
		s.IssuesSeenAt = issuesSeen
	}
	if prsComplete && prsSeen.After(s.PullRequestsSeenAt) {
		s.PullRequestsSeenAt = prsSeen
	}
}
