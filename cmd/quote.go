package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/quoteflow/internal/pipeline"
)

var (
	quoteCustomerText  string
	quoteCustomerEmail string
)

var quoteCmd = &cobra.Command{
	Use:   "quote <workflow.json>",
	Short: "Run the full quote pipeline for a workflow export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read workflow file")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		outcome, err := env.Pipeline.GenerateQuote(cmd.Context(), pipeline.QuoteRequest{
			Workflow:      data,
			CustomerText:  quoteCustomerText,
			CustomerEmail: quoteCustomerEmail,
		})
		if err != nil {
			return err
		}
		if outcome.Rejection != nil {
			out, _ := json.MarshalIndent(outcome.Rejection, "", "  ")
			fmt.Println(string(out))
			return eris.Errorf("import rejected: %s", outcome.Rejection.Code)
		}

		out, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteCustomerText, "customer-text", "", "free-text customer instructions")
	quoteCmd.Flags().StringVar(&quoteCustomerEmail, "customer-email", "", "customer email for review notifications")
	rootCmd.AddCommand(quoteCmd)
}
