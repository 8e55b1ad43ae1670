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

// Package ratelimit records the GitHub GraphQL rate limit reported with each
// successful response and forwards it to observers. It never blocks or
// throttles; callers that want to slow down react to the events themselves.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Snapshot is the rate limit block returned by GitHub with a query.
type Snapshot struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset"`
}

// Event is emitted once per successful query.
type Event struct {
	// ID increases by one per event emitted by the same Tracker.
	ID     uint64   `json:"id"`
	Status int      `json:"status"`
	Rate   Snapshot `json:"rate"`
}

// Observer receives rate limit events. Observers run synchronously on the
// fetching goroutine and must return quickly.
type Observer func(Event)

// Tracker owns the event sequence and the most recent snapshot.
// It is safe for concurrent use so that sessions running in parallel can
// share one sequence.
type Tracker struct {
	mu        sync.Mutex
	next      uint64
	last      Snapshot
	seen      bool
	observers []Observer
}

// NewTracker creates a tracker that notifies the given observers in order.
// Nil observers are ignored.
func NewTracker(observers ...Observer) *Tracker {
	t := &Tracker{}
	for _, o := range observers {
		if o != nil {
			t.observers = append(t.observers, o)
		}
	}
	return t
}

// Record stores snap and emits an event carrying the next sequence id.
func (t *Tracker) Record(snap Snapshot) Event {
	t.mu.Lock()
	ev := Event{ID: t.next, Status: http.StatusOK, Rate: snap}
	t.next++
	t.last = snap
	t.seen = true
	observers := t.observers
	t.mu.Unlock()

	for _, o := range observers {
		o(ev)
	}
	return ev
}

// Last returns the latest snapshot and whether one has been recorded.
func (t *Tracker) Last() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.seen
}

// Count returns how many events have been emitted.
func (t *Tracker) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}
