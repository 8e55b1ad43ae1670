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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-board/internal/config"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/output"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

func newLabelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "labels <owner>/<repo>",
		Short: "Print the labels of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := config.ParseRepository(args[0])
			if err != nil {
				return err
			}
			client := a.newClient(a.resolveToken(), a.cfg.GitHub.GraphQLEndpoint)
			return a.runLabels(cmd.Context(), client, repo)
		},
	}
}

func (a *app) runLabels(ctx context.Context, client github.Client, repo config.Repository) error {
	s := syncer.New(client,
		syncer.WithLogger(a.logger),
		syncer.WithRetryPolicy(syncer.RetryPolicy{
			WarningThreshold: a.cfg.Sync.WarningThreshold,
			SleepTime:        a.cfg.Sync.SleepTime,
		}),
	)

	res, err := s.FetchOne(ctx, syncer.Repo(repo.Owner, repo.Name).Labels(), syncer.FetchOptions{})
	if err != nil {
		return err
	}
	if !res.Complete || res.Labels == nil {
		return fmt.Errorf("failed to fetch labels of %s after %d attempts", repo, res.Requests)
	}

	w := output.NewWriter(a.stdout)
	defer w.Close()
	return w.WriteLabels(*res.Labels)
}
