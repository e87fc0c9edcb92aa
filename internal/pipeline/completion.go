package pipeline

import (
	"context"
	"log/slog"

	"brightline.video/relay/internal/db"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProcessingStatus reports per-phase artifact presence plus the aggregate.
// Complete is derived on demand and never stored.
type ProcessingStatus struct {
	Transcript bool `json:"transcript"`
	Tags       bool `json:"tags"`
	Chapters   bool `json:"chapters"`
	Abstract   bool `json:"abstract"`
	Title      bool `json:"title"`
	Complete   bool `json:"complete"`
}

func statusFromArtifacts(a *db.ProcessingArtifacts) ProcessingStatus {
	s := ProcessingStatus{
		Transcript: a.HasTranscript,
		Tags:       a.TagCount > 0,
		Chapters:   a.ChapterCount > 0,
		Abstract:   a.HasAbstract,
		Title:      a.HasTitle,
	}
	s.Complete = s.Transcript && s.Tags && s.Chapters && s.Abstract && s.Title
	return s
}

// CompletionChecker answers "is this video's pipeline done?" from artifact
// presence alone.
type CompletionChecker struct {
	store Store
}

func NewCompletionChecker(store Store) *CompletionChecker {
	return &CompletionChecker{store: store}
}

// Status never fails: on a query error it logs and returns the all-false
// status (fail-closed).
func (c *CompletionChecker) Status(ctx context.Context, videoID pgtype.UUID) ProcessingStatus {
	artifacts, err := c.store.GetProcessingArtifacts(ctx, videoID)
	if err != nil {
		slog.Warn("failed to check processing artifacts", "video_id", videoID, "error", err)
		return ProcessingStatus{}
	}
	return statusFromArtifacts(artifacts)
}

func (c *CompletionChecker) IsComplete(ctx context.Context, videoID pgtype.UUID) bool {
	return c.Status(ctx, videoID).Complete
}
