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

// Package output streams sync results as NDJSON (newline delimited JSON):
// one issue or pull request record, or one repository label list, per
// line. The sync command uses it to feed records to other tools while
// repositories are still being fetched, without waiting for the snapshot.
//
// Example usage:
//
//	w, err := output.NewFileWriter("records.ndjson")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.WriteRecords(result.Issues); err != nil {
//	    return err
//	}
package output
