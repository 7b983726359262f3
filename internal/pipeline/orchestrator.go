package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"playlet/internal/align"
	"playlet/internal/config"
	"playlet/internal/jobs"
	"playlet/internal/language"
	"playlet/internal/logging"
	"playlet/internal/mix"
	"playlet/internal/notifications"
	"playlet/internal/plan"
	"playlet/internal/reconcile"
	"playlet/internal/render"
	"playlet/internal/services"
	"playlet/internal/services/tts"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
	"playlet/internal/timeline"
)

// neighborContextRunes bounds how much neighboring dialogue each script
// request carries.
const neighborContextRunes = 120

// Recognizer transcribes source audio into timed cues.
type Recognizer interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	Recognize(ctx context.Context, wavPath, workDir string) ([]subtitles.Cue, error)
}

// Prober measures the source media duration.
type Prober interface {
	Duration(ctx context.Context, mediaPath string) (timecode.Millis, error)
}

// ScriptGenerator writes a narration script for one planned segment.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, request plan.Request) (string, error)
}

// Synthesizer renders a script to audio and measures the result.
type Synthesizer interface {
	Synthesize(ctx context.Context, request tts.Request, outputPath string) (tts.Result, error)
}

// Degradation records one segment that fell back to pass-through.
type Degradation struct {
	SegmentID int
	Stage     string
	Reason    string
}

// Outcome is the result of a completed job.
type Outcome struct {
	Job           *jobs.Item
	Plan          render.Plan
	PlanPath      string
	NarrationPath string
	Timeline      []timeline.OutputSpan
	Degradations  []Degradation
	Coverage      float64
	Drift         timecode.Millis
}

// Orchestrator drives jobs through the narration pipeline.
type Orchestrator struct {
	cfg        *config.Config
	recognizer Recognizer
	prober     Prober
	scripts    ScriptGenerator
	synth      Synthesizer
	store      *jobs.Store
	notifier   notifications.Service
	logger     *slog.Logger
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithStore persists job progress and per-segment results for resume.
func WithStore(store *jobs.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithNotifier pushes job lifecycle events.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) { o.notifier = notifier }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New constructs an orchestrator around the supplied collaborators.
func New(cfg *config.Config, recognizer Recognizer, prober Prober, scripts ScriptGenerator, synth Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		recognizer: recognizer,
		prober:     prober,
		scripts:    scripts,
		synth:      synth,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	return o
}

// Run processes one job to completion. The returned error is also recorded
// on the job item when a store is configured.
func (o *Orchestrator) Run(ctx context.Context, item *jobs.Item) (*Outcome, error) {
	if item == nil {
		return nil, errors.New("pipeline: nil job")
	}
	logger := o.logger.With(logging.String(logging.FieldJobID, item.JobID))
	ctx = services.WithJobID(ctx, item.JobID)

	style, known := o.cfg.StyleByName(item.Style)
	if !known {
		logger.Warn("style not in catalog, narrating with free-form description",
			logging.String("style", item.Style))
	}

	_ = o.notifier.NotifyJobStarted(ctx, item.SourcePath, style.Name)

	workDir := filepath.Join(o.cfg.Paths.WorkDir, item.JobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, o.fail(ctx, item, services.Wrap(services.ErrConfiguration, "pipeline", "workdir", workDir, err))
	}

	segments, total, err := o.alignStage(ctx, item, workDir, logger)
	if err != nil {
		return nil, o.fail(ctx, item, err)
	}

	requests := o.planStage(ctx, item, segments, style, logger)

	narrations, degradations, err := o.synthesizeStage(ctx, item, requests, style, workDir, logger)
	if err != nil {
		return nil, o.fail(ctx, item, err)
	}

	groups, moreDegradations, err := o.reconcileStage(ctx, item, segments, narrations, style, logger)
	if err != nil {
		return nil, o.fail(ctx, item, err)
	}
	degradations = append(degradations, moreDegradations...)

	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, item, services.Wrap(services.ErrTransient, "assembling", "canceled", "", err))
	}
	outcome, err := o.assembleStage(ctx, item, groups, narrations, degradations, style, total, logger)
	if err != nil {
		return nil, o.fail(ctx, item, err)
	}

	_ = o.notifier.NotifyJobCompleted(ctx, item.SourcePath, outcome.Coverage,
		outcome.Drift.Duration(), len(outcome.Degradations))
	return outcome, nil
}

func (o *Orchestrator) alignStage(ctx context.Context, item *jobs.Item, workDir string, logger *slog.Logger) ([]align.Segment, timecode.Millis, error) {
	o.setStatus(ctx, item, jobs.StatusAligning, "aligning", "partitioning source timeline", 5)

	total, err := o.prober.Duration(ctx, item.SourcePath)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "aligning", "probe", item.SourcePath, err)
	}

	var cues []subtitles.Cue
	if item.SubtitlePath != "" {
		cues, err = subtitles.ParseSRTFile(item.SubtitlePath)
		if err != nil {
			return nil, 0, services.Wrap(services.ErrValidation, "aligning", "parse subtitles", item.SubtitlePath, err)
		}
		logger.Info("using provided subtitles", logging.String("path", item.SubtitlePath),
			logging.Int("cues", len(cues)))
	} else {
		audioPath := filepath.Join(workDir, "source.wav")
		if err := o.recognizer.ExtractAudio(ctx, item.SourcePath, audioPath); err != nil {
			return nil, 0, services.Wrap(services.ErrExternalTool, "aligning", "extract audio", item.SourcePath, err)
		}
		cues, err = o.recognizer.Recognize(ctx, audioPath, workDir)
		if err != nil {
			return nil, 0, services.Wrap(services.ErrExternalTool, "aligning", "recognize", item.SourcePath, err)
		}
		logger.Info("recognition complete", logging.Int("cues", len(cues)))
	}

	segments, err := align.Partition(cues, total, align.Options{
		MinSilence:    timecode.FromSeconds(o.cfg.Reconcile.MinSilenceSeconds),
		FrameInterval: o.frameInterval(),
	})
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "aligning", "partition", "", err)
	}

	item.TotalSegments = len(segments)
	logger.Info("timeline partitioned", logging.Int("segments", len(segments)),
		logging.String("total", total.String()))
	return segments, total, nil
}

func (o *Orchestrator) planStage(ctx context.Context, item *jobs.Item, segments []align.Segment, style config.Style, logger *slog.Logger) []plan.Request {
	o.setStatus(ctx, item, jobs.StatusPlanning, "planning", "selecting segments for narration", 15)

	requests := plan.Build(segments, style, plan.Options{
		MinDuration:     timecode.FromSeconds(o.cfg.Reconcile.MinSegmentSeconds),
		NeighborContext: neighborContextRunes,
	})
	logger.Info("narration planned", logging.Int("requests", len(requests)))
	return requests
}

// segmentNarration holds the per-segment synthesis result while the job runs.
type segmentNarration struct {
	clip  *reconcile.Clip
	voice string
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, item *jobs.Item, requests []plan.Request, style config.Style, workDir string, logger *slog.Logger) (map[int]segmentNarration, []Degradation, error) {
	o.setStatus(ctx, item, jobs.StatusSynthesizing, "synthesizing", "generating narration", 25)

	narrations := make(map[int]segmentNarration, len(requests))
	var degradations []Degradation
	if len(requests) == 0 {
		return narrations, nil, nil
	}

	saved := map[int]jobs.SegmentResult{}
	if o.store != nil {
		loaded, err := o.store.LoadSegmentResults(ctx, item.JobID)
		if err != nil {
			logger.Warn("could not load saved segment results", logging.Error(err))
		} else {
			saved = loaded
		}
	}

	var mu sync.Mutex
	var completed int
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency())

	for _, request := range requests {
		request := request
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			if prev, ok := saved[request.SegmentID]; ok {
				mu.Lock()
				if prev.Degraded {
					degradations = append(degradations, Degradation{
						SegmentID: prev.SegmentID,
						Stage:     prev.DegradedStage,
						Reason:    "degraded in previous run",
					})
				} else {
					narrations[request.SegmentID] = segmentNarration{clip: &reconcile.Clip{
						SegmentID:     prev.SegmentID,
						Script:        prev.Script,
						AudioHandle:   prev.AudioHandle,
						AudioDuration: timecode.Millis(prev.AudioDuration),
						SpeedFactor:   1,
					}}
				}
				completed++
				mu.Unlock()
				return nil
			}

			narration, degradation := o.narrateSegment(groupCtx, request, style, workDir, logger)

			mu.Lock()
			defer mu.Unlock()
			result := jobs.SegmentResult{JobID: item.JobID, SegmentID: request.SegmentID}
			if degradation != nil {
				degradations = append(degradations, *degradation)
				result.Degraded = true
				result.DegradedStage = degradation.Stage
			} else {
				narrations[request.SegmentID] = narration
				result.Script = narration.clip.Script
				result.AudioHandle = narration.clip.AudioHandle
				result.AudioDuration = int64(narration.clip.AudioDuration)
			}
			if o.store != nil {
				if err := o.store.SaveSegmentResult(ctx, result); err != nil {
					logger.Warn("could not persist segment result",
						logging.Int(logging.FieldSegment, request.SegmentID), logging.Error(err))
				}
			}
			completed++
			o.setStatus(ctx, item, jobs.StatusSynthesizing, "synthesizing",
				fmt.Sprintf("narrated %d/%d segments", completed, len(requests)),
				25+50*float64(completed)/float64(len(requests)))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "synthesizing", "narrate", "cancelled", err)
	}
	return narrations, degradations, nil
}

// narrateSegment runs the two collaborator calls for one segment. A returned
// degradation never aborts the job.
func (o *Orchestrator) narrateSegment(ctx context.Context, request plan.Request, style config.Style, workDir string, logger *slog.Logger) (segmentNarration, *Degradation) {
	segLogger := logger.With(logging.Int(logging.FieldSegment, request.SegmentID))

	scriptCtx, cancel := o.callContext(ctx)
	script, err := o.scripts.GenerateScript(scriptCtx, request)
	cancel()
	if err != nil {
		segLogger.Warn("script generation failed, segment passes through", logging.Error(err))
		return segmentNarration{}, &Degradation{SegmentID: request.SegmentID, Stage: "script", Reason: err.Error()}
	}

	voice := strings.TrimSpace(style.Voice)
	if voice == "" {
		voice = language.Voice(style.Language, language.Female)
	}

	audioPath := filepath.Join(workDir, fmt.Sprintf("segment_%d.wav", request.SegmentID))
	synthCtx, cancel := o.callContext(ctx)
	result, err := o.synth.Synthesize(synthCtx, tts.Request{
		Text:  script,
		Voice: voice,
		Speed: speedHint(script, request.TargetDuration),
	}, audioPath)
	cancel()
	if err != nil {
		segLogger.Warn("synthesis failed, segment passes through", logging.Error(err))
		return segmentNarration{}, &Degradation{SegmentID: request.SegmentID, Stage: "synthesis", Reason: err.Error()}
	}

	segLogger.Info("segment narrated",
		logging.String("duration", result.Duration.String()),
		logging.String("target", request.TargetDuration.String()))
	return segmentNarration{
		clip: &reconcile.Clip{
			SegmentID:     request.SegmentID,
			Script:        script,
			AudioHandle:   result.AudioPath,
			AudioDuration: result.Duration,
			SpeedFactor:   result.Speed,
		},
		voice: result.Voice,
	}, nil
}

func (o *Orchestrator) reconcileStage(ctx context.Context, item *jobs.Item, segments []align.Segment, narrations map[int]segmentNarration, style config.Style, logger *slog.Logger) ([][]timeline.OutputSpan, []Degradation, error) {
	o.setStatus(ctx, item, jobs.StatusReconciling, "reconciling", "reconciling segment timing", 80)

	opts := o.reconcileOptions(style)
	groups := make([][]timeline.OutputSpan, 0, len(segments))
	var degradations []Degradation

	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, nil, services.Wrap(services.ErrTransient, "reconciling", "canceled", "", err)
		}
		var clip *reconcile.Clip
		if narration, ok := narrations[segment.ID]; ok {
			clip = narration.clip
		}

		result, err := reconcile.Reconcile(segment, clip, opts)
		if err != nil && clip != nil {
			logger.Warn("reconciliation failed, segment passes through",
				logging.Int(logging.FieldSegment, segment.ID), logging.Error(err))
			degradations = append(degradations, Degradation{
				SegmentID: segment.ID, Stage: "reconcile", Reason: err.Error(),
			})
			delete(narrations, segment.ID)
			result, err = reconcile.Reconcile(segment, nil, opts)
		}
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, "reconciling", "segment",
				fmt.Sprintf("segment %d", segment.ID), err)
		}
		groups = append(groups, result.Spans)
	}
	return groups, degradations, nil
}

func (o *Orchestrator) assembleStage(ctx context.Context, item *jobs.Item, groups [][]timeline.OutputSpan, narrations map[int]segmentNarration, degradations []Degradation, style config.Style, total timecode.Millis, logger *slog.Logger) (*Outcome, error) {
	o.setStatus(ctx, item, jobs.StatusAssembling, "assembling", "assembling output timeline", 90)

	spans, err := timeline.Assemble(groups)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assembling", "timeline", "", err)
	}

	renderPlan, err := render.Build(render.Meta{
		Source:         item.SourcePath,
		Style:          style.Name,
		FrameRate:      o.cfg.Reconcile.FrameRate,
		Blur:           style.Blur,
		SourceDuration: total,
	}, spans)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assembling", "render plan", "", err)
	}

	base := outputBase(item.SourcePath)
	planPath := filepath.Join(o.cfg.Paths.OutputDir, base+".plan.json")
	if err := renderPlan.WriteFile(planPath); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assembling", "write plan", planPath, err)
	}

	narrationPath := filepath.Join(o.cfg.Paths.OutputDir, base+".narration.json")
	if err := writeNarration(narrationPath, item, style.Name, narrations, degradations); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assembling", "write narration", narrationPath, err)
	}

	drift := timeline.Duration(spans) - total
	item.NarratedSegments = len(narrations)
	item.DegradedSegments = len(degradations)
	item.CoverageRatio = renderPlan.Coverage
	item.DriftMillis = int64(drift)
	item.PlanPath = planPath
	item.NarrationPath = narrationPath
	item.Status = jobs.StatusCompleted
	item.ErrorMessage = ""
	item.SetProgress("completed", "render plan written", 100)
	o.persist(ctx, item)

	logger.Info("job complete",
		logging.String("plan", planPath),
		logging.Float64("coverage", renderPlan.Coverage),
		logging.String("drift", drift.Duration().String()),
		logging.Int("degraded", len(degradations)))

	return &Outcome{
		Job:           item,
		Plan:          renderPlan,
		PlanPath:      planPath,
		NarrationPath: narrationPath,
		Timeline:      spans,
		Degradations:  degradations,
		Coverage:      renderPlan.Coverage,
		Drift:         drift,
	}, nil
}

func (o *Orchestrator) reconcileOptions(style config.Style) reconcile.Options {
	rc := o.cfg.Reconcile

	maxSlowdown := rc.MaxSlowdownFactor
	if style.MaxSlowdownFactor > 0 {
		maxSlowdown = style.MaxSlowdownFactor
	}
	originalGain := rc.OriginalGain
	if style.OriginalGain > 0 {
		originalGain = style.OriginalGain
	}
	narrationGain := rc.NarrationGain
	if style.NarrationGain > 0 {
		narrationGain = style.NarrationGain
	}

	return reconcile.Options{
		Alignment:     reconcile.Alignment(rc.Alignment),
		Strategy:      reconcile.Strategy(rc.ExtensionStrategy),
		MaxSlowdown:   maxSlowdown,
		FrameInterval: o.frameInterval(),
		Mix: mix.Options{
			OriginalGain:  originalGain,
			NarrationGain: narrationGain,
			MaxGain:       rc.MaxGain,
			Fade:          timecode.Millis(rc.FadeMillis),
		},
		Blur: style.Blur,
	}
}

func (o *Orchestrator) frameInterval() timecode.Millis {
	if rate := o.cfg.Reconcile.FrameRate; rate > 0 {
		return timecode.Millis(1000 / rate)
	}
	return reconcile.DefaultFrameInterval
}

func (o *Orchestrator) concurrency() int {
	if n := o.cfg.Workflow.NarrationConcurrency; n > 0 {
		return n
	}
	return 1
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(o.cfg.Workflow.CallTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (o *Orchestrator) setStatus(ctx context.Context, item *jobs.Item, status jobs.Status, stage, message string, percent float64) {
	item.Status = status
	item.SetProgress(stage, message, percent)
	o.persist(ctx, item)
}

func (o *Orchestrator) persist(ctx context.Context, item *jobs.Item) {
	if o.store == nil {
		return
	}
	if err := o.store.Update(ctx, item); err != nil {
		o.logger.Warn("could not persist job state",
			logging.String(logging.FieldJobID, item.JobID), logging.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, item *jobs.Item, err error) error {
	// The terminal state must be recorded even when the run context was
	// canceled, otherwise the job looks stalled on the next start.
	ctx = context.WithoutCancel(ctx)
	status := services.FailureStatus(err)
	item.SetFailed(err.Error())
	item.Status = status
	if status == jobs.StatusReview {
		item.ReviewReason = err.Error()
	}
	o.persist(ctx, item)
	_ = o.notifier.NotifyJobFailed(ctx, item.SourcePath, err)
	return err
}

func outputBase(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// speechCharsPerSecond is the pacing assumption shared with script planning.
const speechCharsPerSecond = 5.0

// speedHint asks synthesis to speak faster when the script would plainly
// outrun its segment at normal pace. Zero leaves the configured base speed.
// The reconciler still works from the measured duration either way.
func speedHint(script string, target timecode.Millis) float64 {
	if target <= 0 {
		return 0
	}
	estimated := float64(utf8.RuneCountInString(script)) / speechCharsPerSecond
	if estimated <= target.Seconds() {
		return 0
	}
	return tts.ClampSpeed(estimated / target.Seconds())
}
