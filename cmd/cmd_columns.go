// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/innatives/geocoding-app-v2/tabular"
	"github.com/innatives/geocoding-app-v2/utils/textutils"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List the columns of a tabular file",
	Long: `Shows the header columns of a CSV or XLSX file, to pick the values for
--address-column, --city-column and --country-column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		table, err := tabular.DecodeFile(args[0])
		if err != nil {
			return err
		}

		a, b := strings.Repeat("─", 3), strings.Repeat("─", 40)
		fmt.Printf("Columns in %s:\n", args[0])
		fmt.Printf("╭─%3s─┬─%-40s╮\n", a, b)
		fmt.Printf("│ %3s │ %-40s│\n", "#", "Name")
		fmt.Printf("├─%3s─┼─%-40s┤\n", a, b)

		for i, name := range table.Header {
			fmt.Printf("│ %3d │ %-40s│\n", i+1, name)
		}

		fmt.Printf("╰─%3s─┴─%-40s╯\n", a, b)
		fmt.Printf("%s data rows\n", textutils.FormatInt(int64(len(table.Rows))))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}
