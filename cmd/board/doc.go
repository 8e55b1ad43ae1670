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

// Package main implements the sirseer-board command-line interface.
// It keeps a local snapshot of GitHub issues, pull requests, labels and
// comment reactions for a kanban board.
//
// Commands:
//   - sync: fetch every configured repository and write the snapshot,
//     the recent snapshot and the sync metadata
//   - labels: print the labels of one repository
//   - reactions: print the comments of one pull request with their reactions
//   - react add|remove: change a reaction on GitHub
//
// Usage:
//
//	sirseer-board sync [owner/repo ...] [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	sirseer-board sync golang/go --output-dir ./board --db board.db
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication, authorization or rate limit error
//   - 3: Network error
package main
