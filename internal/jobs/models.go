package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a narration job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAligning     Status = "aligning"
	StatusPlanning     Status = "planning"
	StatusSynthesizing Status = "synthesizing"
	StatusReconciling  Status = "reconciling"
	StatusAssembling   Status = "assembling"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusAligning,
	StatusPlanning,
	StatusSynthesizing,
	StatusReconciling,
	StatusAssembling,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAligning:     {},
	StatusPlanning:     {},
	StatusSynthesizing: {},
	StatusReconciling:  {},
	StatusAssembling:   {},
}

// Item represents a narration job persisted in SQLite.
type Item struct {
	ID               int64
	JobID            string
	SourcePath       string
	SubtitlePath     string
	Style            string
	Status           Status
	ErrorMessage     string
	ReviewReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	TotalSegments    int
	NarratedSegments int
	DegradedSegments int
	CoverageRatio    float64
	DriftMillis      int64
	PlanPath         string
	NarrationPath    string
}

// SegmentResult records the terminal outcome of narrating one segment so a
// resumed job can skip straight to reconciliation for it.
type SegmentResult struct {
	JobID         string
	SegmentID     int
	Script        string
	AudioHandle   string
	AudioDuration int64
	Degraded      bool
	DegradedStage string
	UpdatedAt     time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether the job is mid-pipeline.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsTerminal reports whether the job has reached a resting state.
func (i Item) IsTerminal() bool {
	switch i.Status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the job as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ProgressStage = "failed"
}
