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

package output

import "github.com/sirseerhq/sirseer-board/internal/syncer"

// RecordSink receives sync results.
type RecordSink interface {
	// WriteRecords writes issue or pull request records in order.
	WriteRecords(records []syncer.IssueRecord) error

	// WriteLabels writes the label list of one repository.
	WriteLabels(labels syncer.RepoLabels) error

	// Close releases the underlying file, if any.
	Close() error
}
