package pipeline

import (
	"time"
)

// Queue task types. Phase jobs are named "phase:<name>" so the worker mux
// can register one handler per phase.
const (
	TaskSyncVideo   = "video:sync"
	taskPhasePrefix = "phase:"
)

func TaskTypeForPhase(p Phase) string {
	return taskPhasePrefix + string(p)
}

// PhasePayload is the unit of work handed to a phase worker. Delivery is
// at-least-once, so workers must be idempotent.
type PhasePayload struct {
	VideoID  string `json:"video_id"`
	StreamID string `json:"stream_id"`
	Phase    Phase  `json:"phase"`
}

// SyncPayload schedules a status poll against the provider. Attempt indexes
// into SyncBackoff.
type SyncPayload struct {
	VideoID string `json:"video_id"`
	Attempt int    `json:"attempt"`
}

// SyncBackoff is the polling ladder after upload. It compensates for missed
// or delayed webhooks; once exhausted, only the periodic sweep and webhooks
// move the video forward.
var SyncBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
}
