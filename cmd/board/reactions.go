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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-board/internal/config"
	"github.com/sirseerhq/sirseer-board/internal/github"
	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

func newReactionsCommand(a *app) *cobra.Command {
	var opts syncer.ReactionOptions

	cmd := &cobra.Command{
		Use:   "reactions <owner>/<repo> <pr-number>",
		Short: "Print the comments of a pull request with every reaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := config.ParseRepository(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number %q", args[1])
			}
			opts.PRNumber = number
			client := a.newClient(a.resolveToken(), a.cfg.GitHub.GraphQLEndpoint)
			return a.runReactions(cmd.Context(), client, repo, opts)
		},
	}

	cmd.Flags().IntVar(&opts.ReviewsCount, "reviews", syncer.DefaultReviewsCount, "Number of reviews to include")
	cmd.Flags().IntVar(&opts.DiscussionsPerReview, "discussions", syncer.DefaultDiscussionsPerReview, "Review comments per review")
	cmd.Flags().IntVar(&opts.CommentsCount, "comments", syncer.DefaultCommentsCount, "Conversation comments to include")

	return cmd
}

func (a *app) runReactions(ctx context.Context, client github.Client, repo config.Repository, opts syncer.ReactionOptions) error {
	s := syncer.New(client,
		syncer.WithLogger(a.logger),
		syncer.WithRetryPolicy(syncer.RetryPolicy{
			WarningThreshold: a.cfg.Sync.ReactionWarningThreshold,
			SleepTime:        a.cfg.Sync.SleepTime,
		}),
	)

	q := syncer.Repo(repo.Owner, repo.Name).Reactions(opts)
	res, err := s.FetchOne(ctx, q, syncer.FetchOptions{})
	if err != nil {
		return err
	}
	if !res.Complete {
		return fmt.Errorf("failed to fetch reactions of %s#%d after %d attempts", repo, opts.PRNumber, res.Requests)
	}
	comments := res.Comments
	if comments == nil {
		comments = []syncer.CommentRecord{}
	}
	return printJSON(a.stdout, comments)
}
