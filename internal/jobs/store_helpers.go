package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, job_id, source_path, subtitle_path, style, status, error_message, review_reason, created_at, updated_at, progress_stage, progress_percent, progress_message, total_segments, narrated_segments, degraded_segments, coverage_ratio, drift_millis, plan_path, narration_path"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		jobID           string
		sourcePath      string
		subtitlePath    sql.NullString
		style           string
		statusStr       string
		errorMessage    sql.NullString
		reviewReason    sql.NullString
		createdRaw      string
		updatedRaw      string
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		totalSegments   int
		narrated        int
		degraded        int
		coverage        float64
		drift           int64
		planPath        sql.NullString
		narrationPath   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&sourcePath,
		&subtitlePath,
		&style,
		&statusStr,
		&errorMessage,
		&reviewReason,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&totalSegments,
		&narrated,
		&degraded,
		&coverage,
		&drift,
		&planPath,
		&narrationPath,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		JobID:            jobID,
		SourcePath:       sourcePath,
		SubtitlePath:     subtitlePath.String,
		Style:            style,
		Status:           Status(statusStr),
		ErrorMessage:     errorMessage.String,
		ReviewReason:     reviewReason.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
		TotalSegments:    totalSegments,
		NarratedSegments: narrated,
		DegradedSegments: degraded,
		CoverageRatio:    coverage,
		DriftMillis:      drift,
		PlanPath:         planPath.String,
		NarrationPath:    narrationPath.String,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
