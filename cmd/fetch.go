package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/healthmap/internal/directory"
	"github.com/sells-group/healthmap/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "List organizations from the proxy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newProxyClient()
		if err != nil {
			return err
		}

		f := listFilterFromFlags(cmd)
		orgs, err := loadOrganizations(cmd.Context(), client, f)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(orgs)
		}

		if len(orgs) == 0 {
			fmt.Fprintln(os.Stderr, "No organizations found.")
			return nil
		}
		formatOrganizations(os.Stdout, orgs)
		formatCounts(os.Stdout, directory.VisibleCounts(orgs))
		return nil
	},
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("sheet", model.SheetAll, "sheet to read (Hospitales, Asociaciones or all)")
	cmd.Flags().Bool("hospitals", true, "include hospitals")
	cmd.Flags().Bool("associations", true, "include associations")
	cmd.Flags().Bool("only-active", false, "only organizations with status 1 (default from config)")
}

func listFilterFromFlags(cmd *cobra.Command) listFilter {
	sheet, _ := cmd.Flags().GetString("sheet")
	hospitals, _ := cmd.Flags().GetBool("hospitals")
	associations, _ := cmd.Flags().GetBool("associations")
	onlyActive, _ := cmd.Flags().GetBool("only-active")
	return listFilter{
		Sheet:        sheet,
		Hospitals:    hospitals,
		Associations: associations,
		OnlyActive:   onlyActive || cfg.Map.OnlyActive,
	}
}

func init() {
	addListFlags(fetchCmd)
	fetchCmd.Flags().Bool("json", false, "print organizations as JSON")
	rootCmd.AddCommand(fetchCmd)
}
