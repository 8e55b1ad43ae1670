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
	"errors"
	"fmt"
	"net/url"
	"strings"

	goGithub "github.com/google/go-github/v72/github"
)

// DefaultRESTEndpoint is github.com's REST API.
const DefaultRESTEndpoint = "https://api.github.com/"

// RESTClient reads repository metadata from the REST API. The GraphQL
// list queries do not report visibility, which the repository summary
// needs.
type RESTClient struct {
	client *goGithub.Client
}

// NewRESTClient creates a REST client for baseURL, e.g. a GitHub Enterprise
// API root. An empty token sends unauthenticated requests.
func NewRESTClient(token, baseURL string) (*RESTClient, error) {
	client := goGithub.NewClient(newHTTPClient(token, defaultTimeout))

	if baseURL == "" {
		baseURL = DefaultRESTEndpoint
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse REST base URL %q: %w", baseURL, err)
	}
	client.BaseURL = parsed

	return &RESTClient{client: client}, nil
}

// GetRepositoryInfo returns the visibility of owner/repo.
func (c *RESTClient) GetRepositoryInfo(ctx context.Context, owner, repo string) (*RepositoryInfo, error) {
	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, wrapRESTError("get repository "+owner+"/"+repo, err)
	}
	return &RepositoryInfo{
		Owner:     owner,
		Name:      repo,
		IsPrivate: r.GetPrivate(),
	}, nil
}

// wrapRESTError keeps the HTTP status of go-github errors visible to the
// error inspector.
func wrapRESTError(op string, err error) error {
	var respErr *goGithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return fmt.Errorf("%s: %w", op, &StatusError{
			StatusCode: respErr.Response.StatusCode,
			Body:       respErr.Message,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}
