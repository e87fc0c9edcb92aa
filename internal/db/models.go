package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type VideoStatus string

const (
	VideoStatusPendingUpload VideoStatus = "pending_upload"
	VideoStatusProcessing    VideoStatus = "processing"
	VideoStatusReady         VideoStatus = "ready"
	VideoStatusError         VideoStatus = "error"
)

type Video struct {
	ID              pgtype.UUID
	StreamID        string
	Title           *string
	Abstract        *string
	Status          VideoStatus
	ErrorReason     *string
	DurationSeconds *float64
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Transcript struct {
	VideoID   pgtype.UUID
	Language  string
	Content   string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Chapter struct {
	ID           pgtype.UUID
	VideoID      pgtype.UUID
	StartSeconds float64
	EndSeconds   float64
	Title        string
	Summary      string
	CreatedAt    pgtype.Timestamptz
}

// ProcessingArtifacts reports which pipeline outputs exist for a video.
// Completeness is always derived from this row, never stored.
type ProcessingArtifacts struct {
	HasTranscript bool
	TagCount      int64
	ChapterCount  int64
	HasAbstract   bool
	HasTitle      bool
}
