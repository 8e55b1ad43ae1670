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

package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestTrackerRecord(t *testing.T) {
	var got []Event
	tracker := NewTracker(func(e Event) { got = append(got, e) }, nil)

	reset := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.Record(Snapshot{Remaining: 4999, Limit: 5000, ResetAt: reset})
	tracker.Record(Snapshot{Remaining: 4998, Limit: 5000, ResetAt: reset})

	if len(got) != 2 {
		t.Fatalf("observer saw %d events, want 2", len(got))
	}
	for i, e := range got {
		if e.ID != uint64(i) {
			t.Errorf("event %d ID = %d, want %d", i, e.ID, i)
		}
		if e.Status != http.StatusOK {
			t.Errorf("event %d Status = %d, want 200", i, e.Status)
		}
	}
	if got[1].Rate.Remaining != 4998 {
		t.Errorf("Remaining = %d, want 4998", got[1].Rate.Remaining)
	}

	last, ok := tracker.Last()
	if !ok || last.Remaining != 4998 || !last.ResetAt.Equal(reset) {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	if tracker.Count() != 2 {
		t.Errorf("Count() = %d, want 2", tracker.Count())
	}
}

func TestTrackerSequencesAreIndependent(t *testing.T) {
	a := NewTracker()
	b := NewTracker()
	a.Record(Snapshot{})
	a.Record(Snapshot{})
	if e := b.Record(Snapshot{}); e.ID != 0 {
		t.Errorf("second tracker started at %d, want 0", e.ID)
	}
	if _, ok := NewTracker().Last(); ok {
		t.Error("Last() reported a snapshot before any Record")
	}
}

func TestTrackerConcurrentRecord(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	seen := make(chan uint64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- tracker.Record(Snapshot{Limit: 5000}).ID
		}()
	}
	wg.Wait()
	close(seen)

	ids := make(map[uint64]bool)
	for id := range seen {
		if ids[id] {
			t.Fatalf("duplicate event id %d", id)
		}
		ids[id] = true
	}
	if len(ids) != 50 {
		t.Errorf("got %d unique ids, want 50", len(ids))
	}
}
