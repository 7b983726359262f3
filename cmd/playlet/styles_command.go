package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playlet/internal/config"
	"playlet/internal/language"
)

func newStylesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the narration style catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.Styles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No styles configured")
				return nil
			}

			rows := make([][]string, 0, len(cfg.Styles))
			for _, style := range cfg.Styles {
				rows = append(rows, []string{
					style.Name,
					style.Description,
					styleVoice(style),
					language.DisplayName(style.Language),
					yesNo(style.Blur),
				})
			}
			table := renderTable(
				[]string{"Name", "Description", "Voice", "Language", "Blur"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func styleVoice(style config.Style) string {
	if style.Voice != "" {
		return style.Voice
	}
	return language.Voice(style.Language, language.Female)
}
