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

// Package metadata records what a sync run did: how many records of each
// kind every repository produced, how many GraphQL calls were made and the
// last rate limit GitHub reported. The record is saved as JSON beside the
// state files.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirseerhq/sirseer-board/internal/fsutil"
	"github.com/sirseerhq/sirseer-board/internal/ratelimit"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

// Tracker collects statistics during a sync. Its Observe method is a
// ratelimit.Observer. All methods are safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	startTime time.Time
	apiCalls  int
	lastRate  *ratelimit.Snapshot
	requests  int
	warnings  int
	repos     map[string]*RepoStats
	order     []string
	complete  bool
}

// New creates a tracker and starts its clock.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
		repos:     make(map[string]*RepoStats),
		complete:  true,
	}
}

// Observe counts a successful response and remembers its rate limit.
func (t *Tracker) Observe(e ratelimit.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCalls++
	rate := e.Rate
	t.lastRate = &rate
}

func (t *Tracker) repo(name string) *RepoStats {
	s, ok := t.repos[name]
	if !ok {
		s = &RepoStats{Repository: name, Complete: true}
		t.repos[name] = s
		t.order = append(t.order, name)
	}
	return s
}

// RecordResult adds the outcome of one fetch for repository.
func (t *Tracker) RecordResult(repository string, res *syncer.Result) {
	if res == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.repo(repository)
	switch res.Kind {
	case syncer.KindIssues:
		s.Issues += len(res.Issues)
	case syncer.KindPullRequests:
		s.PullRequests += len(res.Issues)
	case syncer.KindLabels:
		if res.Labels != nil {
			s.Labels += len(res.Labels.Labels)
		}
	}
	for _, r := range res.Issues {
		if r.Issue.UpdatedAt.After(s.NewestUpdate) {
			s.NewestUpdate = r.Issue.UpdatedAt
		}
	}
	if !res.Complete {
		s.Complete = false
		t.complete = false
	}
	t.requests += res.Requests
	t.warnings += res.Warnings
}

// APICallCount returns the number of successful responses observed.
func (t *Tracker) APICallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apiCalls
}

// GenerateMetadata creates the record of the run. Call it once the run
// has finished.
func (t *Tracker) GenerateMetadata(boardVersion string, params SyncParams, incremental bool, previous *SyncRef) *SyncMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()
	m := &SyncMetadata{
		BoardVersion: boardVersion,
		SyncID:       fmt.Sprintf("%s-%d", getSyncType(incremental), t.startTime.UnixMilli()),
		Parameters:   params,
		Results: SyncResults{
			APICallCount: t.apiCalls,
			Requests:     t.requests,
			Warnings:     t.warnings,
			Complete:     t.complete,
			RateLimit:    t.lastRate,
			Duration:     completedAt.Sub(t.startTime).String(),
			StartedAt:    t.startTime,
			CompletedAt:  completedAt,
		},
		Repositories: make([]RepoStats, 0, len(t.order)),
		Incremental:  incremental,
		PreviousSync: previous,
	}
	for _, name := range t.order {
		s := *t.repos[name]
		m.Repositories = append(m.Repositories, s)
		m.Results.TotalIssues += s.Issues
		m.Results.TotalPullRequests += s.PullRequests
		m.Results.TotalLabels += s.Labels
	}
	return m
}

// Ref returns the reference a later run links to.
func (m *SyncMetadata) Ref() *SyncRef {
	return &SyncRef{SyncID: m.SyncID, CompletedAt: m.Results.CompletedAt}
}

const filePrefix = "sync-metadata-"

// SaveMetadata writes metadata to dir as sync-metadata-{unix ms}.json.
// The file is written to a temporary name and renamed into place.
func SaveMetadata(metadata *SyncMetadata, dir string) error {
	var buf bytes.Buffer
	if err := WriteMetadataToWriter(metadata, &buf); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	filename := fmt.Sprintf("%s%013d.json", filePrefix, metadata.Results.StartedAt.UnixMilli())
	if err := fsutil.WriteAtomic(filepath.Join(dir, filename), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save metadata file: %w", err)
	}
	return nil
}

// LoadLatestMetadata loads the newest metadata file in dir. It returns
// nil without error when there is none.
func LoadLatestMetadata(dir string) (*SyncMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	// Names embed a zero-padded start time, so they sort chronologically.
	sort.Strings(files)

	file, err := os.Open(files[len(files)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata SyncMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

// WriteMetadataToWriter writes metadata as indented JSON.
func WriteMetadataToWriter(metadata *SyncMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func getSyncType(incremental bool) string {
	if incremental {
		return "incremental"
	}
	return "full"
}
