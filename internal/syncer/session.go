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

package syncer

import (
	"context"
	"log/slog"

	"github.com/sirseerhq/sirseer-board/internal/github"
)

// session is the transient state of one terminal call. It is created by
// FetchAll or FetchOne, never shared, and dropped when the call returns.
type session struct {
	owner   string
	name    string
	kind    Kind
	perPage int
	policy  RetryPolicy
	sleep   sleepFunc
	logger  *slog.Logger

	size     int
	cursor   string
	pages    int
	requests int
	warnings int
	aborted  bool

	// truncated is set when the page cap stopped a list that had more
	// pages.
	truncated bool
}

func newSession(q Query, perPage int, policy RetryPolicy, sleep sleepFunc, logger *slog.Logger) *session {
	if perPage <= 0 || perPage > github.MaxPageSize {
		perPage = github.MaxPageSize
	}
	return &session{
		owner:   q.owner,
		name:    q.name,
		kind:    q.kind,
		perPage: perPage,
		policy:  policy.normalized(),
		sleep:   sleep,
		logger: logger.With(
			slog.String("owner", q.owner),
			slog.String("name", q.name),
			slog.String("kind", q.kind.String()),
		),
	}
}

// nextPageSize implements slow start: 1, then doubling while the doubled
// size stays below perPage, then perPage for every following page.
// It is called once per page, so a retried page is requested again at the
// same size; failures do not grow the window.
func (s *session) nextPageSize() int {
	switch {
	case s.size == 0:
		s.size = 1
	case s.size*2 < s.perPage:
		s.size *= 2
	default:
		s.size = s.perPage
	}
	return s.size
}

// do runs op until it succeeds. Each failure counts as a warning; once the
// count reaches the threshold, or ctx is done, the session is aborted and
// do returns false.
func (s *session) do(ctx context.Context, op func(context.Context) error) bool {
	for {
		s.requests++
		err := op(ctx)
		if err == nil {
			return true
		}

		s.warnings++
		s.logger.Warn("no usable data",
			slog.Int("page", s.pages),
			slog.String("cursor", s.cursor),
			slog.Int("warnings", s.warnings),
			slog.Int("threshold", s.policy.WarningThreshold),
			slog.Any("error", err),
		)

		if ctx.Err() != nil {
			s.aborted = true
			return false
		}
		if s.warnings >= s.policy.WarningThreshold {
			s.logger.Warn("warning threshold reached, stop fetching",
				slog.Int("warnings", s.warnings),
				slog.Int("pages", s.pages),
			)
			s.aborted = true
			return false
		}
		if err := s.sleep(ctx, s.policy.SleepTime); err != nil {
			s.aborted = true
			return false
		}
	}
}
