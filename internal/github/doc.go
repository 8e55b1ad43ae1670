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

// Package github talks to GitHub's GraphQL API on behalf of the board. It
// issues the issue, pull request, label and reaction detail queries and the
// two reaction mutations, one request per call, and returns the nodes in
// the shape GitHub sent them.
//
// The package includes:
//   - A Client interface and its GraphQL implementation on shurcooL/graphql
//   - Query variables and mutation inputs typed with shurcooL/githubv4
//   - A REST client on go-github for repository visibility
//   - A scripted MockClient for tests
//
// Basic usage:
//
//	client := github.NewGraphQLClient(token, github.DefaultGraphQLEndpoint)
//	page, err := client.FetchIssues(ctx, "octo", "board", github.PageOptions{
//	    Size: 1,
//	})
//	if err != nil {
//	    // Handle error
//	}
//	for _, node := range page.Nodes {
//	    // Process issue
//	}
package github
