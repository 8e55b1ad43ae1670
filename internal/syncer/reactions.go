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
	"errors"
	"log/slog"

	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/giterror"
	"github.com/sirseerhq/sirseer-board/internal/github"
)

// ReactionInput names the comment and the reaction to add or remove.
type ReactionInput struct {
	ID      string
	Content ReactionKind
}

// ReactionResult reports the outcome of a reaction mutation. On success
// Data holds GitHub's response. On failure Err holds the error and
// PermissionDenied tells the caller that the reaction belongs to someone
// else, so optimistic state should be reset and the pull request synced
// again.
type ReactionResult struct {
	Result           bool                   `json:"result"`
	Data             *github.ReactionChange `json:"data,omitempty"`
	Message          string                 `json:"error,omitempty"`
	PermissionDenied bool                   `json:"permissionDenied,omitempty"`
	Err              error                  `json:"-"`
}

// AddReaction adds a reaction. It changes no local state.
func (s *Syncer) AddReaction(ctx context.Context, in ReactionInput) ReactionResult {
	return s.mutateReaction(ctx, "add", in, s.client.AddReaction)
}

// RemoveReaction removes the viewer's reaction. It changes no local state.
func (s *Syncer) RemoveReaction(ctx context.Context, in ReactionInput) ReactionResult {
	return s.mutateReaction(ctx, "remove", in, s.client.RemoveReaction)
}

func (s *Syncer) mutateReaction(
	ctx context.Context,
	action string,
	in ReactionInput,
	mutate func(ctx context.Context, subjectID, content string) (*github.ReactionChange, error),
) ReactionResult {
	logger := s.logger.With(
		slog.String("action", action),
		slog.String("id", in.ID),
		slog.String("content", string(in.Content)),
	)

	kind, err := ParseReactionKind(string(in.Content))
	if err != nil {
		return failedReaction(err)
	}

	change, err := mutate(ctx, in.ID, string(kind))
	if err != nil {
		res := failedReaction(err)
		res.PermissionDenied = errors.Is(err, boarderrors.ErrPermissionDenied) ||
			giterror.NewErrorChainInspector(giterror.NewInspector()).IsPermissionError(err)
		logger.Warn("reaction mutation failed",
			slog.Bool("permission_denied", res.PermissionDenied),
			slog.Any("error", err),
		)
		return res
	}

	logger.Debug("reaction mutation done")
	return ReactionResult{Result: true, Data: change}
}

func failedReaction(err error) ReactionResult {
	return ReactionResult{Result: false, Message: err.Error(), Err: err}
}
