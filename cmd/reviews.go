package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/quoteflow/internal/model"
)

var (
	reviewsAll      bool
	reviewsReviewer string
	reviewsNotes    string
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Inspect and resolve the manual review queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var items []model.ReviewQueueItem
		if reviewsAll {
			items, err = env.Reviews.ListAll(cmd.Context())
		} else {
			items, err = env.Reviews.ListPending(cmd.Context())
		}
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("no review items")
			return nil
		}
		for _, item := range items {
			line, _ := json.Marshal(item)
			fmt.Println(string(line))
		}
		return nil
	},
}

var reviewsApproveCmd = &cobra.Command{
	Use:   "approve <queue-id>",
	Short: "Approve a pending quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveReview(cmd, args[0], true)
	},
}

var reviewsRejectCmd = &cobra.Command{
	Use:   "reject <queue-id>",
	Short: "Reject a pending quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveReview(cmd, args[0], false)
	},
}

func resolveReview(cmd *cobra.Command, queueID string, approve bool) error {
	env, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	var ok bool
	if approve {
		ok, err = env.Reviews.Approve(cmd.Context(), queueID, reviewsReviewer, reviewsNotes)
	} else {
		ok, err = env.Reviews.Reject(cmd.Context(), queueID, reviewsReviewer, reviewsNotes)
	}
	if err != nil {
		return err
	}
	if !ok {
		return eris.Errorf("review %s not found or already resolved", queueID)
	}

	fmt.Printf("review %s resolved\n", queueID)
	return nil
}

func init() {
	reviewsCmd.Flags().BoolVar(&reviewsAll, "all", false, "list all items, not just pending")
	reviewsApproveCmd.Flags().StringVar(&reviewsReviewer, "reviewer", "", "reviewer name")
	reviewsApproveCmd.Flags().StringVar(&reviewsNotes, "notes", "", "resolution notes")
	reviewsRejectCmd.Flags().StringVar(&reviewsReviewer, "reviewer", "", "reviewer name")
	reviewsRejectCmd.Flags().StringVar(&reviewsNotes, "notes", "", "resolution notes")
	reviewsCmd.AddCommand(reviewsApproveCmd, reviewsRejectCmd)
	rootCmd.AddCommand(reviewsCmd)
}
