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

// Package testutil provides common test helpers for sirseer-board
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// Page is one scripted page of an issue or pull request list.
type Page struct {
	Nodes       []Node
	Cursor      string
	HasPrevious bool
}

// Request is what the fake server saw of one GraphQL request.
type Request struct {
	Kind          string
	Owner         string
	Name          string
	Last          int
	Before        string
	OrderField    string
	Authorization string
}

// Request kinds.
const (
	KindIssues         = "issues"
	KindPullRequests   = "pullRequests"
	KindLabels         = "labels"
	KindReactions      = "reactions"
	KindAddReaction    = "addReaction"
	KindRemoveReaction = "removeReaction"
)

// GitHubServer is a fake GitHub API. List pages are served in the order
// they were added, one per request; an exhausted list answers with an
// empty last page. The REST repository endpoint reports Private.
type GitHubServer struct {
	*httptest.Server

	mu           sync.Mutex
	issuePages   []Page
	prPages      []Page
	labels       []Node
	failures     []int
	forbidRemove bool
	requests     []Request

	// Private is the visibility served by GET /repos/{owner}/{name}.
	Private bool
}

// NewGitHubServer starts a fake GitHub closed at test cleanup.
func NewGitHubServer(t *testing.T) *GitHubServer {
	t.Helper()
	s := &GitHubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// GraphQLURL is the value for GITHUB_GRAPHQL_ENDPOINT.
func (s *GitHubServer) GraphQLURL() string {
	return s.URL + "/graphql"
}

// AddIssuePages appends issue pages.
func (s *GitHubServer) AddIssuePages(pages ...Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuePages = append(s.issuePages, pages...)
}

// AddPullRequestPages appends pull request pages.
func (s *GitHubServer) AddPullRequestPages(pages ...Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prPages = append(s.prPages, pages...)
}

// SetLabels sets the repository labels by name.
func (s *GitHubServer) SetLabels(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = nil
	for i, name := range names {
		s.labels = append(s.labels, Node{
			"id":        fmt.Sprintf("LA_%d", i+1),
			"name":      name,
			"color":     "ededed",
			"isDefault": false,
		})
	}
}

// FailNext makes the next n GraphQL requests fail with status.
func (s *GitHubServer) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.failures = append(s.failures, status)
	}
}

// ForbidRemoveReaction makes removeReaction fail the way GitHub does for
// a reaction of another user.
func (s *GitHubServer) ForbidRemoveReaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forbidRemove = true
}

// Requests returns the GraphQL requests received so far.
func (s *GitHubServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsOf returns the requests of one kind.
func (s *GitHubServer) RequestsOf(kind string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func requestKind(query string) string {
	switch {
	case strings.Contains(query, "addReaction("):
		return KindAddReaction
	case strings.Contains(query, "removeReaction("):
		return KindRemoveReaction
	case strings.Contains(query, "pullRequest(number:"):
		return KindReactions
	case strings.Contains(query, "pullRequests("):
		return KindPullRequests
	case strings.Contains(query, "issues("):
		return KindIssues
	case strings.Contains(query, "labels("):
		return KindLabels
	}
	return ""
}

func (s *GitHubServer) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/repos/") {
		s.handleRepository(w, r)
		return
	}
	if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec := Request{
		Kind:          requestKind(req.Query),
		Authorization: r.Header.Get("Authorization"),
	}
	rec.Owner, _ = req.Variables["owner"].(string)
	rec.Name, _ = req.Variables["name"].(string)
	if last, ok := req.Variables["perPage"].(float64); ok {
		rec.Last = int(last)
	}
	rec.Before, _ = req.Variables["before"].(string)
	if order, ok := req.Variables["orderBy"].(map[string]interface{}); ok {
		rec.OrderField, _ = order["field"].(string)
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	if len(s.failures) > 0 {
		status := s.failures[0]
		s.failures = s.failures[1:]
		s.mu.Unlock()
		http.Error(w, http.StatusText(status), status)
		return
	}
	body := s.respond(rec, req.Variables)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

var rateLimit = Node{"limit": 5000, "remaining": 4999, "resetAt": "2030-01-01T00:00:00Z"}

// respond builds the response body. Callers hold s.mu.
func (s *GitHubServer) respond(rec Request, variables map[string]interface{}) Node {
	switch rec.Kind {
	case KindIssues:
		return listResponse("issues", nextPage(&s.issuePages))
	case KindPullRequests:
		return listResponse("pullRequests", nextPage(&s.prPages))
	case KindLabels:
		labels := append([]Node{}, s.labels...)
		return Node{"data": Node{
			"repository": Node{"labels": Node{"nodes": labels}},
			"rateLimit":  rateLimit,
		}}
	case KindReactions:
		return Node{"data": Node{
			"repository": Node{"pullRequest": Node{
				"reviews":  Node{"nodes": []Node{}},
				"comments": Node{"nodes": []Node{}},
			}},
			"rateLimit": rateLimit,
		}}
	case KindAddReaction, KindRemoveReaction:
		if rec.Kind == KindRemoveReaction && s.forbidRemove {
			return Node{
				"data": nil,
				"errors": []Node{{
					"type":    "FORBIDDEN",
					"message": "octocat does not have the correct permissions to execute `RemoveReaction`",
				}},
			}
		}
		input, _ := variables["input"].(map[string]interface{})
		return Node{"data": Node{rec.Kind: Node{
			"reaction": Node{"content": input["content"]},
			"subject":  Node{"id": input["subjectId"]},
		}}}
	}
	return Node{"errors": []Node{{"message": "unsupported query"}}}
}

func nextPage(pages *[]Page) Page {
	if len(*pages) == 0 {
		return Page{}
	}
	p := (*pages)[0]
	*pages = (*pages)[1:]
	return p
}

func listResponse(field string, p Page) Node {
	nodes := p.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return Node{"data": Node{
		"repository": Node{field: Node{
			"pageInfo": Node{"startCursor": p.Cursor, "hasPreviousPage": p.HasPrevious},
			"nodes":    nodes,
		}},
		"rateLimit": rateLimit,
	}}
}

func (s *GitHubServer) handleRepository(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	private := s.Private
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Node{
		"id":        1,
		"name":      parts[2],
		"full_name": parts[1] + "/" + parts[2],
		"private":   private,
		"pushed_at": time.Now().UTC().Format(time.RFC3339),
	})
}
