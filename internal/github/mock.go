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

package github

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock method names used in MockCall and FailNext.
const (
	MethodIssues         = "FetchIssues"
	MethodPullRequests   = "FetchPullRequests"
	MethodLabels         = "FetchLabels"
	MethodReactions      = "FetchReactions"
	MethodAddReaction    = "AddReaction"
	MethodRemoveReaction = "RemoveReaction"
)

// MockCall records one call made to MockClient.
type MockCall struct {
	Method    string
	Owner     string
	Repo      string
	Page      PageOptions
	Reactions ReactionOptions
	SubjectID string
	Content   string
}

// MockClient is a scripted Client for tests. Pages are served in order,
// one per successful call; failures queued with FailNext are returned
// first and do not consume a page.
type MockClient struct {
	mu sync.Mutex

	issuePages []*IssuePage
	prPages    []*PullRequestPage
	labels     *LabelPage
	reactions  map[int]*ReactionPage

	// Error, when set, is returned by every call.
	Error error

	failures map[string][]error
	calls    []MockCall
}

// MockClientOption configures a MockClient.
type MockClientOption func(*MockClient)

// WithIssuePages scripts the issue pages in the order they are served.
func WithIssuePages(pages ...*IssuePage) MockClientOption {
	return func(m *MockClient) {
		m.issuePages = append(m.issuePages, pages...)
	}
}

// WithPullRequestPages scripts the pull request pages.
func WithPullRequestPages(pages ...*PullRequestPage) MockClientOption {
	return func(m *MockClient) {
		m.prPages = append(m.prPages, pages...)
	}
}

// WithLabels sets the label page.
func WithLabels(page *LabelPage) MockClientOption {
	return func(m *MockClient) {
		m.labels = page
	}
}

// WithReactions sets the reaction page served for a pull request number.
func WithReactions(number int, page *ReactionPage) MockClientOption {
	return func(m *MockClient) {
		m.reactions[number] = page
	}
}

// WithError makes every call fail with err.
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// NewMockClient creates a mock client with the given script.
func NewMockClient(opts ...MockClientOption) *MockClient {
	m := &MockClient{
		reactions: make(map[int]*ReactionPage),
		failures:  make(map[string][]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailNext makes the next n calls of method fail with err.
func (m *MockClient) FailNext(method string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures[method] = append(m.failures[method], err)
	}
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many calls were made to method.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// record stores the call and returns the error it should fail with.
func (m *MockClient) record(ctx context.Context, call MockCall) error {
	m.calls = append(m.calls, call)

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Error != nil {
		return m.Error
	}
	if queued := m.failures[call.Method]; len(queued) > 0 {
		m.failures[call.Method] = queued[1:]
		return queued[0]
	}
	return nil
}

// FetchIssues implements Client.
func (m *MockClient) FetchIssues(ctx context.Context, owner, repo string, opts PageOptions) (*IssuePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodIssues, Owner: owner, Repo: repo, Page: opts}); err != nil {
		return nil, err
	}
	if len(m.issuePages) == 0 {
		return &IssuePage{}, nil
	}
	page := m.issuePages[0]
	m.issuePages = m.issuePages[1:]
	return page, nil
}

// FetchPullRequests implements Client.
func (m *MockClient) FetchPullRequests(ctx context.Context, owner, repo string, opts PageOptions) (*PullRequestPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodPullRequests, Owner: owner, Repo: repo, Page: opts}); err != nil {
		return nil, err
	}
	if len(m.prPages) == 0 {
		return &PullRequestPage{}, nil
	}
	page := m.prPages[0]
	m.prPages = m.prPages[1:]
	return page, nil
}

// FetchLabels implements Client.
func (m *MockClient) FetchLabels(ctx context.Context, owner, repo string) (*LabelPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodLabels, Owner: owner, Repo: repo}); err != nil {
		return nil, err
	}
	if m.labels == nil {
		return &LabelPage{}, nil
	}
	return m.labels, nil
}

// FetchReactions implements Client.
func (m *MockClient) FetchReactions(ctx context.Context, owner, repo string, opts ReactionOptions) (*ReactionPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodReactions, Owner: owner, Repo: repo, Reactions: opts}); err != nil {
		return nil, err
	}
	page, ok := m.reactions[opts.PRNumber]
	if !ok {
		return &ReactionPage{}, nil
	}
	return page, nil
}

// AddReaction implements Client.
func (m *MockClient) AddReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodAddReaction, SubjectID: subjectID, Content: content}); err != nil {
		return nil, err
	}
	return &ReactionChange{Content: content, SubjectID: subjectID}, nil
}

// RemoveReaction implements Client.
func (m *MockClient) RemoveReaction(ctx context.Context, subjectID, content string) (*ReactionChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record(ctx, MockCall{Method: MethodRemoveReaction, SubjectID: subjectID, Content: content}); err != nil {
		return nil, err
	}
	return &ReactionChange{Content: content, SubjectID: subjectID}, nil
}

// GenerateIssues creates n open issues numbered from first, the newest
// updated at newest and each following one a minute older. Nodes are
// returned oldest first, the order GitHub uses within a page when
// paginating with last:.
func GenerateIssues(first, n int, newest time.Time) []IssueNode {
	nodes := make([]IssueNode, n)
	for i := 0; i < n; i++ {
		updated := newest.Add(-time.Duration(n-1-i) * time.Minute)
		number := first + i
		nodes[i] = IssueNode{
			Number:    number,
			Title:     fmt.Sprintf("Issue %d", number),
			BodyText:  "body",
			URL:       fmt.Sprintf("https://github.com/octo/board/issues/%d", number),
			State:     "OPEN",
			CreatedAt: updated.Add(-time.Hour),
			UpdatedAt: updated,
			Author:    &Actor{Login: "octocat", AvatarURL: "https://avatars.githubusercontent.com/u/583231"},
			Labels:    LabelConnection{Nodes: []Label{{Name: "bug", Color: "d73a4a"}}},
		}
	}
	return nodes
}
