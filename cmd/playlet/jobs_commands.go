package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"playlet/internal/config"
	"playlet/internal/jobs"
	"playlet/internal/timecode"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage narration jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsResetCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List narration jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]jobs.Status, 0, len(listStatuses))
			for _, value := range listStatuses {
				status, ok := jobs.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						shortJobID(item.JobID),
						filepath.Base(item.SourcePath),
						item.Style,
						string(item.Status),
						formatProgress(item),
						item.CreatedAt.Format(time.DateTime),
					})
				}
				table := renderTable(
					[]string{"Job", "Source", "Style", "Status", "Progress", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				item, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:       %s\n", item.JobID)
				fmt.Fprintf(out, "Source:    %s\n", item.SourcePath)
				if item.SubtitlePath != "" {
					fmt.Fprintf(out, "Subtitles: %s\n", item.SubtitlePath)
				}
				fmt.Fprintf(out, "Style:     %s\n", item.Style)
				fmt.Fprintf(out, "Status:    %s\n", item.Status)
				fmt.Fprintf(out, "Progress:  %s\n", formatProgress(item))
				fmt.Fprintf(out, "Created:   %s\n", item.CreatedAt.Format(time.DateTime))
				fmt.Fprintf(out, "Updated:   %s\n", item.UpdatedAt.Format(time.DateTime))

				if item.TotalSegments > 0 {
					fmt.Fprintf(out, "Segments:  %d narrated of %d (%d degraded)\n",
						item.NarratedSegments, item.TotalSegments, item.DegradedSegments)
					fmt.Fprintf(out, "Coverage:  %.0f%%\n", item.CoverageRatio*100)
					fmt.Fprintf(out, "Drift:     %s\n", timecode.Millis(item.DriftMillis))
				}
				if item.PlanPath != "" {
					fmt.Fprintf(out, "Plan:      %s\n", item.PlanPath)
				}
				if item.NarrationPath != "" {
					fmt.Fprintf(out, "Narration: %s\n", item.NarrationPath)
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:     %s\n", item.ErrorMessage)
				}
				if item.ReviewReason != "" {
					fmt.Fprintf(out, "Review:    %s\n", item.ReviewReason)
				}
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearFailed && clearAll {
				return errors.New("specify only one of --failed or --all")
			}
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				var statuses []jobs.Status
				label := "completed"
				switch {
				case clearFailed:
					statuses = []jobs.Status{jobs.StatusFailed, jobs.StatusReview}
					label = "failed"
				case clearAll:
					statuses = jobs.AllStatuses()
					label = "stored"
				}

				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s jobs\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed and review jobs instead of completed ones")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every stored job")
	return cmd
}

func newJobsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight jobs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				updated, err := store.ResetStalled(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

// findJob resolves an identifier to a stored job, accepting full job IDs and
// unambiguous prefixes.
func findJob(cmd *cobra.Command, store *jobs.Store, identifier string) (*jobs.Item, error) {
	identifier = strings.TrimSpace(identifier)
	item, err := store.GetByJobID(cmd.Context(), identifier)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, jobs.ErrNotFound) {
		return nil, err
	}

	items, listErr := store.List(cmd.Context())
	if listErr != nil {
		return nil, listErr
	}
	var match *jobs.Item
	for _, candidate := range items {
		if strings.HasPrefix(candidate.JobID, identifier) {
			if match != nil {
				return nil, fmt.Errorf("job id %q is ambiguous", identifier)
			}
			match = candidate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("job %q not found", identifier)
	}
	return match, nil
}

func shortJobID(jobID string) string {
	if len(jobID) > 8 {
		return jobID[:8]
	}
	return jobID
}

func formatProgress(item *jobs.Item) string {
	if item.Status == jobs.StatusCompleted {
		return "100%"
	}
	if item.ProgressStage == "" {
		return "-"
	}
	return fmt.Sprintf("%s %.0f%%", item.ProgressStage, item.ProgressPercent)
}
