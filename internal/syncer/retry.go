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
	"time"
)

const (
	// DefaultWarningThreshold is the number of failed requests a session
	// tolerates before it gives up and returns what it has.
	DefaultWarningThreshold = 15

	// DefaultReactionWarningThreshold applies to the reaction detail
	// sub-fetch of a single pull request.
	DefaultReactionWarningThreshold = 3

	// DefaultSleepTime is the fixed pause before a failed page is retried.
	DefaultSleepTime = 3 * time.Second
)

// RetryPolicy configures how a session retries failed pages. Retries use
// a fixed interval without backoff or jitter, and the warning count is
// cumulative over the whole session.
type RetryPolicy struct {
	// WarningThreshold is the number of failures that ends the session.
	WarningThreshold int

	// SleepTime is the pause between a failure and the retry.
	SleepTime time.Duration
}

// DefaultRetryPolicy returns the policy for issue and pull request lists.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		WarningThreshold: DefaultWarningThreshold,
		SleepTime:        DefaultSleepTime,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.WarningThreshold < 1 {
		p.WarningThreshold = DefaultWarningThreshold
	}
	if p.SleepTime < 0 {
		p.SleepTime = 0
	}
	return p
}

// sleepFunc pauses between retries. Tests replace it to avoid real waits.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
