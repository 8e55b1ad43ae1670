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

// Package syncer turns GitHub issues, pull requests, labels and reactions
// into the records a kanban board renders.
//
// A Query value says what to fetch; a Syncer runs it. FetchAll pages
// backwards through an issue or pull request list with a slow start page
// size, stopping at the earliest date of interest. Pull requests whose
// comments carry reactions get a second, smaller query for the reaction
// detail, merged into the comments by id. Review comments are filtered by
// author and content before they reach the record.
//
// Failed requests are retried after a fixed pause until a session's
// warning threshold is reached; the caller then gets whatever was fetched
// with Result.Complete set to false.
package syncer
