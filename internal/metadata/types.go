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

package metadata

import (
	"time"

	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
)

// SyncMetadata is the record of one sync run.
type SyncMetadata struct {
	BoardVersion string      `json:"board_version"`
	SyncID       string      `json:"sync_id"`
	Parameters   SyncParams  `json:"parameters"`
	Results      SyncResults `json:"results"`
	Repositories []RepoStats `json:"repositories"`
	Incremental  bool        `json:"incremental"`
	PreviousSync *SyncRef    `json:"previous_sync,omitempty"`
}

// SyncParams captures the settings the run used.
type SyncParams struct {
	Repositories   []string   `json:"repositories"`
	PerPage        int        `json:"per_page"`
	PageThreshold  int        `json:"page_threshold"`
	EarliestDate   *time.Time `json:"earliest_date,omitempty"`
	PREarliestDate *time.Time `json:"pr_earliest_date,omitempty"`
}

// SyncResults are the totals of a run. APICallCount counts successful
// GraphQL responses; Requests also counts failed attempts.
type SyncResults struct {
	TotalIssues       int                 `json:"total_issues"`
	TotalPullRequests int                 `json:"total_pull_requests"`
	TotalLabels       int                 `json:"total_labels"`
	APICallCount      int                 `json:"api_calls_made"`
	Requests          int                 `json:"requests"`
	Warnings          int                 `json:"warnings"`
	Complete          bool                `json:"complete"`
	RateLimit         *ratelimit.Snapshot `json:"rate_limit,omitempty"`
	Duration          string              `json:"sync_duration"`
	StartedAt         time.Time           `json:"started_at"`
	CompletedAt       time.Time           `json:"completed_at"`
}

// RepoStats are the per repository counts.
type RepoStats struct {
	Repository   string    `json:"repository"`
	Issues       int       `json:"issues"`
	PullRequests int       `json:"pull_requests"`
	Labels       int       `json:"labels"`
	Complete     bool      `json:"complete"`
	NewestUpdate time.Time `json:"newest_update,omitzero"`
}

// SyncRef links an incremental run to the run before it.
type SyncRef struct {
	SyncID      string    `json:"sync_id"`
	CompletedAt time.Time `json:"completed_at"`
}
