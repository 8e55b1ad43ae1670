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

package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirseerhq/sirseer-board/internal/fsutil"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

// Snapshot is the document the board loads.
type Snapshot struct {
	Issues       []syncer.IssueRecord `json:"issues"`
	RepoLabels   []syncer.RepoLabels  `json:"repoLabels"`
	Repositories []Repository         `json:"repositories"`
}

// Repository summarizes one synchronized repository. LastSeenAt is the
// newest updatedAt among its records and is absent when it has none.
type Repository struct {
	RepoOwner  string     `json:"repoOwner"`
	RepoName   string     `json:"repoName"`
	IsPrivate  bool       `json:"isPrivate"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

type repoKey struct {
	owner string
	name  string
}

// Builder collects sync results. Records are kept in the order they were
// added; adding a record whose key is already present replaces it in
// place. It is safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	records []syncer.IssueRecord
	index   map[syncer.RecordKey]int
	labels  []syncer.RepoLabels
	repos   []Repository
	seen    map[repoKey]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[syncer.RecordKey]int),
		seen:  make(map[repoKey]int),
	}
}

// AddRepository registers a repository for the summary. Registering it
// again updates isPrivate.
func (b *Builder) AddRepository(owner, name string, isPrivate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := repoKey{owner, name}
	if i, ok := b.seen[k]; ok {
		b.repos[i].IsPrivate = isPrivate
		return
	}
	b.seen[k] = len(b.repos)
	b.repos = append(b.repos, Repository{RepoOwner: owner, RepoName: name, IsPrivate: isPrivate})
}

// AddRecords adds issue or pull request records.
func (b *Builder) AddRecords(records []syncer.IssueRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range records {
		k := r.Key()
		if i, ok := b.index[k]; ok {
			b.records[i] = r
			continue
		}
		b.index[k] = len(b.records)
		b.records = append(b.records, r)
	}
}

// AddLabels adds or replaces the label list of a repository.
func (b *Builder) AddLabels(labels syncer.RepoLabels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.labels {
		if l.RepoOwner == labels.RepoOwner && l.RepoName == labels.RepoName {
			b.labels[i] = labels
			return
		}
	}
	b.labels = append(b.labels, labels)
}

// Merge seeds the builder with a previous snapshot, keeping only the
// records and labels of repositories registered so far. Records added
// later replace the ones with the same key, which is how an incremental
// sync keeps records it did not fetch again.
func (b *Builder) Merge(prev *Snapshot) {
	if prev == nil {
		return
	}
	b.mu.Lock()
	known := func(owner, name string) bool {
		_, ok := b.seen[repoKey{owner, name}]
		return ok
	}
	var records []syncer.IssueRecord
	for _, r := range prev.Issues {
		if known(r.RepoOwner, r.RepoName) {
			records = append(records, r)
		}
	}
	var labels []syncer.RepoLabels
	for _, l := range prev.RepoLabels {
		if known(l.RepoOwner, l.RepoName) {
			labels = append(labels, l)
		}
	}
	b.mu.Unlock()

	b.AddRecords(records)
	for _, l := range labels {
		b.AddLabels(l)
	}
}

// Len returns the number of records collected.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Build returns the snapshot. The builder may keep being used.
func (b *Builder) Build() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := &Snapshot{
		Issues:       append([]syncer.IssueRecord{}, b.records...),
		RepoLabels:   append([]syncer.RepoLabels{}, b.labels...),
		Repositories: make([]Repository, len(b.repos)),
	}
	copy(snap.Repositories, b.repos)

	lastSeen := LastSeen(snap.Issues)
	for i := range snap.Repositories {
		r := &snap.Repositories[i]
		if t, ok := lastSeen[syncer.RecordKey{Owner: r.RepoOwner, Name: r.RepoName}]; ok {
			r.LastSeenAt = &t
		}
	}
	return snap
}

// LastSeen returns the newest updatedAt per repository. The keys have a
// zero Number.
func LastSeen(records []syncer.IssueRecord) map[syncer.RecordKey]time.Time {
	out := make(map[syncer.RecordKey]time.Time)
	for _, r := range records {
		k := syncer.RecordKey{Owner: r.RepoOwner, Name: r.RepoName}
		if t, ok := out[k]; !ok || r.Issue.UpdatedAt.After(t) {
			out[k] = r.Issue.UpdatedAt
		}
	}
	return out
}

// Recent returns a copy of s holding only the records updated at or after
// now minus window. Labels and repositories are kept whole.
func Recent(s *Snapshot, now time.Time, window time.Duration) *Snapshot {
	cutoff := now.Add(-window)
	out := &Snapshot{
		Issues:       make([]syncer.IssueRecord, 0),
		RepoLabels:   s.RepoLabels,
		Repositories: s.Repositories,
	}
	for _, r := range s.Issues {
		if !r.Issue.UpdatedAt.Before(cutoff) {
			out.Issues = append(out.Issues, r)
		}
	}
	return out
}

// WriteFile atomically writes s as compact JSON to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := fsutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadFile loads a snapshot written by WriteFile. A missing file yields
// an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot %s is corrupted: %w", path, err)
	}
	return &s, nil
}
