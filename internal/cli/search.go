package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Preview knowledge retrieval for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("limit", "l", 3, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.Retriever.Search(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("searching knowledge: %w", err)
	}

	if formatFlag == "json" {
		if results == nil {
			results = []string{}
		}
		b, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matching knowledge")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, r)
	}
	return nil
}
