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

// Package snapshot assembles the JSON documents the board loads on start:
// every synchronized issue and pull request, the label list of each
// repository and a summary of the repositories themselves.
//
// Two documents are written from one sync. The full snapshot holds every
// record; the recent snapshot keeps only records updated within a trailing
// window (a month by default) so the board can render quickly before the
// full document arrives. Both are written atomically.
//
// Example usage:
//
//	b := snapshot.NewBuilder()
//	b.AddRepository("pingcap", "tidb", false)
//	b.AddRecords(result.Issues)
//	snap := b.Build()
//	err := snapshot.WriteFile("issues.json", snap)
package snapshot
