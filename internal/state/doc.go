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

// Package state persists what an incremental sync needs to resume: per
// repository, the newest updatedAt seen among its issues and among its
// pull requests.
//
// State files are JSON, carry a schema version and a SHA256 checksum, and
// are written with a write-to-temp-and-rename pattern so a crash never
// leaves a half-written file behind.
//
// Example usage:
//
//	st, err := state.LoadState(state.StateFilePath(dir, "pingcap/tidb"))
//	if errors.Is(err, state.ErrNoState) {
//	    // first sync: fetch everything
//	}
package state
