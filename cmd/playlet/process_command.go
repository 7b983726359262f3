package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"playlet/internal/config"
	"playlet/internal/jobs"
	"playlet/internal/logging"
	"playlet/internal/pipeline"
	"playlet/internal/services/asr"
	"playlet/internal/services/ffprobe"
	"playlet/internal/services/llm"
	"playlet/internal/services/tts"
)

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".avi": {},
	".mov": {},
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var styleFlag string
	var srtFlag string
	var resumeFlag bool

	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Narrate a video and emit a render plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // best-effort: API keys may live in .env

			sourcePath, err := resolveVideoPath(args[0])
			if err != nil {
				return err
			}

			subtitlePath := strings.TrimSpace(srtFlag)
			if subtitlePath != "" {
				if subtitlePath, err = filepath.Abs(subtitlePath); err != nil {
					return fmt.Errorf("resolve subtitle path: %w", err)
				}
				if _, err := os.Stat(subtitlePath); err != nil {
					return fmt.Errorf("subtitle file: %w", err)
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Single writer on the job database at a time.
			lock := flock.New(filepath.Join(cfg.Paths.WorkDir, "playlet.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another playlet run is already in progress")
			}
			defer lock.Unlock()

			store, err := jobs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			item, err := resolveJob(runCtx, store, sourcePath, subtitlePath, styleFlag, resumeFlag, cmd)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			orchestrator := pipeline.New(cfg,
				newRecognizer(cfg),
				ffprobe.NewService(""),
				newScriptClient(cfg),
				newSynthClient(cfg),
				pipeline.WithStore(store),
				pipeline.WithLogger(logger),
			)

			outcome, err := orchestrator.Run(runCtx, item)
			if err != nil {
				return fmt.Errorf("process %s: %w", filepath.Base(sourcePath), err)
			}

			printOutcome(cmd, outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&styleFlag, "style", "s", "suspense", "Narration style name or free-form description")
	cmd.Flags().StringVar(&srtFlag, "srt", "", "Use an existing SRT file instead of speech recognition")
	cmd.Flags().BoolVar(&resumeFlag, "resume", false, "Resume the most recent job for this video")
	return cmd
}

func resolveVideoPath(arg string) (string, error) {
	absPath, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", absPath)
	}

	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := videoExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
	return absPath, nil
}

func resolveJob(ctx context.Context, store *jobs.Store, sourcePath, subtitlePath, style string, resume bool, cmd *cobra.Command) (*jobs.Item, error) {
	if resume {
		item, err := store.FindBySource(ctx, sourcePath)
		if err != nil {
			return nil, err
		}
		if item != nil && !item.IsTerminal() {
			fmt.Fprintf(cmd.OutOrStdout(), "Resuming job %s (%s)\n", item.JobID, item.Status)
			return item, nil
		}
		if item != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Previous job %s is %s; starting fresh\n", item.JobID, item.Status)
		}
	}
	return store.NewJob(ctx, sourcePath, subtitlePath, style)
}

func newRecognizer(cfg *config.Config) *asr.Service {
	return asr.NewService(asr.Config{
		Binary:   cfg.ASR.Binary,
		Model:    cfg.ASR.Model,
		Language: cfg.ASR.Language,
	})
}

func newScriptClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	},
		llm.WithRetryMaxAttempts(cfg.Workflow.RetryAttempts),
		llm.WithRetryBackoff(time.Duration(cfg.Workflow.RetryBaseDelaySeconds)*time.Second, 0),
	)
}

func newSynthClient(cfg *config.Config) *tts.Client {
	return tts.NewClient(tts.Config{
		BaseURL:        cfg.TTS.BaseURL,
		Voice:          cfg.TTS.Voice,
		Speed:          cfg.TTS.Speed,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	},
		tts.WithRetryMaxAttempts(cfg.Workflow.RetryAttempts),
		tts.WithRetryBackoff(time.Duration(cfg.Workflow.RetryBaseDelaySeconds)*time.Second, 0),
	)
}

func printOutcome(cmd *cobra.Command, outcome *pipeline.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %s completed\n", outcome.Job.JobID)
	fmt.Fprintf(out, "  Segments:  %d narrated of %d", outcome.Job.NarratedSegments, outcome.Job.TotalSegments)
	if degraded := len(outcome.Degradations); degraded > 0 {
		fmt.Fprintf(out, " (%d degraded)", degraded)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Coverage:  %.0f%%\n", outcome.Coverage*100)
	fmt.Fprintf(out, "  Drift:     %s\n", outcome.Drift)
	fmt.Fprintf(out, "  Plan:      %s\n", outcome.PlanPath)
	if outcome.NarrationPath != "" {
		fmt.Fprintf(out, "  Narration: %s\n", outcome.NarrationPath)
	}
}
