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

package giterror

import (
	"errors"
	"strings"
)

// Inspector provides methods to classify errors returned by the GitHub API.
// The board's sync client never aborts on these classes; it uses them to
// pick log messages, exit codes and the reaction-removal recovery path.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication failure.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the error represents a resource not found error.
	IsNotFoundError(err error) bool

	// IsRateLimitError returns true if the error represents a rate limit error.
	IsRateLimitError(err error) bool

	// IsComplexityError returns true if the error represents a query complexity error.
	IsComplexityError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool

	// IsPermissionError returns true if the token is authenticated but not
	// allowed to perform the operation, e.g. removing someone else's reaction.
	IsPermissionError(err error) bool
}

// GitHubErrorInspector classifies errors by the messages GitHub puts in
// HTTP bodies and GraphQL error lists.
type GitHubErrorInspector struct{}

// NewInspector creates the message based inspector.
func NewInspector() Inspector {
	return &GitHubErrorInspector{}
}

func containsAny(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}

// IsAuthError checks for 401 responses and credential failures.
func (i *GitHubErrorInspector) IsAuthError(err error) bool {
	if i.IsRateLimitError(err) {
		return false
	}
	return containsAny(err, "401", "unauthorized", "bad credentials", "authentication")
}

// IsNotFoundError checks for unresolved repositories and 404 responses.
func (i *GitHubErrorInspector) IsNotFoundError(err error) bool {
	return containsAny(err, "404", "not found", "could not resolve to")
}

// IsRateLimitError checks for primary and secondary rate limits.
func (i *GitHubErrorInspector) IsRateLimitError(err error) bool {
	return containsAny(err, "rate limit", "429", "abuse detection")
}

// IsComplexityError checks for GraphQL node limit and complexity failures.
func (i *GitHubErrorInspector) IsComplexityError(err error) bool {
	return containsAny(err, "complexity", "exceeds maximum", "node limit")
}

// IsNetworkError checks for dial, DNS and timeout failures.
func (i *GitHubErrorInspector) IsNetworkError(err error) bool {
	return containsAny(err,
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"temporary failure",
		"dial tcp",
		"tls handshake",
		"network is unreachable",
		"eof",
	)
}

// IsPermissionError checks for the FORBIDDEN GraphQL error class and
// 403 responses that are not rate limits.
func (i *GitHubErrorInspector) IsPermissionError(err error) bool {
	if i.IsRateLimitError(err) {
		return false
	}
	return containsAny(err,
		"forbidden",
		"403",
		"does not have the correct permissions",
		"not accessible by",
		"permission",
	)
}

// ErrorChainInspector checks the error chain for typed errors before
// falling back to the base inspector. Typed errors opt in by implementing
// methods such as IsAuthError() bool.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector wraps base with typed-error detection.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

func (e *ErrorChainInspector) IsAuthError(err error) bool {
	var typed interface{ IsAuthError() bool }
	if errors.As(err, &typed) {
		return typed.IsAuthError()
	}
	return e.base.IsAuthError(err)
}

func (e *ErrorChainInspector) IsNotFoundError(err error) bool {
	var typed interface{ IsNotFoundError() bool }
	if errors.As(err, &typed) && typed.IsNotFoundError() {
		return true
	}
	return e.base.IsNotFoundError(err)
}

func (e *ErrorChainInspector) IsRateLimitError(err error) bool {
	var typed interface{ IsRateLimitError() bool }
	if errors.As(err, &typed) {
		return typed.IsRateLimitError()
	}
	return e.base.IsRateLimitError(err)
}

func (e *ErrorChainInspector) IsComplexityError(err error) bool {
	return e.base.IsComplexityError(err)
}

func (e *ErrorChainInspector) IsNetworkError(err error) bool {
	var typed interface{ IsNetworkError() bool }
	if errors.As(err, &typed) && typed.IsNetworkError() {
		return true
	}
	return e.base.IsNetworkError(err)
}

func (e *ErrorChainInspector) IsPermissionError(err error) bool {
	var typed interface{ IsPermissionError() bool }
	if errors.As(err, &typed) {
		return typed.IsPermissionError()
	}
	return e.base.IsPermissionError(err)
}
