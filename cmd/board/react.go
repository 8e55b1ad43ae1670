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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	boarderrors "github.com/sirseerhq/sirseer-board/internal/errors"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

func newReactCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react",
		Short: "Add or remove a reaction on a review or conversation comment",
		Long: `Add or remove a reaction on a pull request comment and print the result
as JSON. CONTENT is THUMBS_UP, THUMBS_DOWN, LAUGH, HOORAY, CONFUSED or
HEART, in any case.

Removing a reaction that was added by someone else fails with
"permissionDenied": true and exit code 2; sync the pull request again to
restore the board's view of it.`,
	}
	cmd.AddCommand(newReactionCommand(a, "add", "Add a reaction"))
	cmd.AddCommand(newReactionCommand(a, "remove", "Remove the viewer's reaction"))
	return cmd
}

func newReactionCommand(a *app, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <comment-id> <CONTENT>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := a.resolveToken()
			if token == "" {
				return fmt.Errorf("GitHub token not found. Set %s or use --token flag: %w",
					a.cfg.GitHub.TokenEnv, boarderrors.ErrInvalidToken)
			}
			client := a.newClient(token, a.cfg.GitHub.GraphQLEndpoint)
			in := syncer.ReactionInput{ID: args[0], Content: syncer.ReactionKind(args[1])}
			return a.runReact(cmd.Context(), client, action, in)
		},
	}
}

// runReact prints the mutation result and turns a failed mutation into an
// error for the exit code.
func (a *app) runReact(ctx context.Context, client github.Client, action string, in syncer.ReactionInput) error {
	s := syncer.New(client, syncer.WithLogger(a.logger))

	var res syncer.ReactionResult
	if action == "remove" {
		res = s.RemoveReaction(ctx, in)
	} else {
		res = s.AddReaction(ctx, in)
	}

	if err := printJSON(a.stdout, res); err != nil {
		return err
	}
	if res.Result {
		return nil
	}
	if res.PermissionDenied && !errors.Is(res.Err, boarderrors.ErrPermissionDenied) {
		return fmt.Errorf("%s reaction: %w: %v", action, boarderrors.ErrPermissionDenied, res.Err)
	}
	return fmt.Errorf("%s reaction: %w", action, res.Err)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
