package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/healthmap/internal/workbook"
)

var workbookInitCmd = &cobra.Command{
	Use:   "init-workbook <path>",
	Short: "Create an empty offline workbook with Hospitales and Asociaciones sheets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := workbook.Create(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "created %s; set sheets.workbook_path to serve it\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workbookInitCmd)
}
