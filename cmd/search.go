package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/healthmap/internal/directory"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search organizations by name, address, city, country, specialty or type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newProxyClient()
		if err != nil {
			return err
		}

		orgs, err := loadOrganizations(cmd.Context(), client, listFilterFromFlags(cmd))
		if err != nil {
			return err
		}

		hits := directory.Search(orgs, strings.Join(args, " "))
		if len(hits) == 0 {
			fmt.Fprintln(os.Stderr, "No results.")
			return nil
		}
		formatOrganizations(os.Stdout, hits)
		return nil
	},
}

func init() {
	addListFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
