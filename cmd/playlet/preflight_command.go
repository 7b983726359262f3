package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playlet/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check external tools and collaborator services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				status := "ok"
				if !result.Passed {
					status = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}
			table := renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)

			if failed > 0 {
				return fmt.Errorf("%d preflight checks failed", failed)
			}
			return nil
		},
	}
}
