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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sirseerhq/sirseer-board/pkg/version"
)

const (
	// maxResponseSize caps a single API response body.
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBody is how much of a failed response is kept for the error.
	maxErrorBody = 4 * 1024
)

// StatusError is returned by the transport for non-2xx HTTP responses.
// It implements the typed classification methods understood by
// giterror.ErrorChainInspector.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *StatusError) IsNotFoundError() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *StatusError) IsRateLimitError() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(e.Body), "rate limit")
}

func (e *StatusError) IsPermissionError() bool {
	return e.StatusCode == http.StatusForbidden && !e.IsRateLimitError()
}

func (e *StatusError) IsNetworkError() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// newHTTPClient builds the client shared by the GraphQL and REST clients.
// The Authorization header is only sent when a token is configured;
// unauthenticated requests work for public data at a lower rate limit.
func newHTTPClient(token string, timeout time.Duration) *http.Client {
	var base http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if token != "" {
		base = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		}
	}

	return &http.Client{
		Transport: &boardTransport{base: base},
		Timeout:   timeout,
	}
}

// boardTransport adds the user agent, turns HTTP failures into StatusError
// and bounds the response size.
type boardTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *boardTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{ReadCloser: resp.Body, limit: maxResponseSize}
	}
	return resp, nil
}

// limitedReader wraps a ReadCloser with a size limit.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)
	return n, err
}
