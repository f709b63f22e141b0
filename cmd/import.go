package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <workflow.json>",
	Short: "Validate a workflow export and print its price list",
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

		res, priceList := env.Pipeline.Price(data)
		if !res.Valid {
			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Println(string(out))
			return eris.Errorf("import rejected: %s", res.Code)
		}

		out, _ := json.MarshalIndent(priceList, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
