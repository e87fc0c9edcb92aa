package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/stream"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// StreamAPI is the provider status query the reconciler depends on.
type StreamAPI interface {
	GetVideo(ctx context.Context, uid string) (*stream.Video, error)
}

// Reconciler keeps local video status consistent with the provider's
// authoritative state, and kicks off the first pipeline phase when a video
// becomes ready to stream.
type Reconciler struct {
	store   Store
	streams StreamAPI
	jobs    JobDispatcher
}

func NewReconciler(store Store, streams StreamAPI, jobs JobDispatcher) *Reconciler {
	return &Reconciler{store: store, streams: streams, jobs: jobs}
}

// MapStreamState maps a provider state onto the local video status.
func MapStreamState(state string) (db.VideoStatus, bool) {
	switch state {
	case stream.StatePendingUpload:
		return db.VideoStatusPendingUpload, true
	case stream.StateDownloading, stream.StateQueued, stream.StateInProgress:
		return db.VideoStatusProcessing, true
	case stream.StateReady:
		return db.VideoStatusReady, true
	case stream.StateError:
		return db.VideoStatusError, true
	default:
		return "", false
	}
}

// SyncVideoStatus queries the provider and applies the mapped status.
// Writing is conditional on an actual change, so repeated calls with an
// unchanged provider state are no-ops and safe to retry.
func (r *Reconciler) SyncVideoStatus(ctx context.Context, videoID pgtype.UUID) (*db.Video, error) {
	v, err := r.store.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("fetch video: %w", err)
	}

	sv, err := r.streams.GetVideo(ctx, v.StreamID)
	if err != nil {
		return nil, &ProviderError{Op: "status query", Err: err}
	}

	if err := r.applyState(ctx, v, sv.State, sv.ErrorReasonCode, sv.Duration); err != nil {
		return nil, err
	}

	return r.store.GetVideoByID(ctx, videoID)
}

// ApplyWebhook applies a provider push notification without a round-trip.
func (r *Reconciler) ApplyWebhook(ctx context.Context, payload *stream.WebhookPayload) error {
	v, err := r.store.GetVideoByStreamID(ctx, payload.UID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("fetch video by stream id: %w", err)
	}

	state := payload.Status.State
	if state == "" && payload.ReadyToStream {
		// Some deliveries only carry the readyToStream flag.
		state = stream.StateReady
	}

	return r.applyState(ctx, v, state, payload.Status.ErrorReasonCode, 0)
}

func (r *Reconciler) applyState(ctx context.Context, v *db.Video, state, errorReason string, duration float64) error {
	mapped, ok := MapStreamState(state)
	if !ok {
		return &ProviderError{Op: "status query", Err: fmt.Errorf("unknown provider state %q", state)}
	}

	switch mapped {
	case db.VideoStatusReady:
		if duration > 0 {
			if err := r.store.SetVideoDuration(ctx, v.ID, duration); err != nil {
				slog.Warn("failed to store video duration", "video_id", v.ID, "error", err)
			}
		}

		// Compare-and-swap into ready. The transcription job is dispatched
		// only by the caller that actually performed the transition, which
		// keeps duplicate webhook deliveries from double-enqueueing.
		changed, err := r.store.MarkVideoReady(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("mark video ready: %w", err)
		}
		if !changed {
			return nil
		}

		slog.Info("video transcoding ready", "video_id", v.ID, "stream_id", v.StreamID)
		if err := r.jobs.Dispatch(ctx, v.ID.String(), v.StreamID, PhaseTranscription); err != nil {
			// The ready status is committed but no transcription job exists.
			// There is no transaction spanning the queue; log the
			// inconsistency so a manual retrigger can repair it.
			slog.Error("ready transition committed but transcription enqueue failed",
				"video_id", v.ID, "stream_id", v.StreamID, "error", err)
			return err
		}
		return nil

	case db.VideoStatusError:
		var reason *string
		if errorReason != "" {
			reason = &errorReason
		}
		changed, err := r.store.UpdateVideoStatus(ctx, db.UpdateVideoStatusParams{
			ID:          v.ID,
			Status:      db.VideoStatusError,
			ErrorReason: reason,
		})
		if err != nil {
			return fmt.Errorf("update video status: %w", err)
		}
		if changed {
			slog.Warn("video transcoding failed", "video_id", v.ID, "stream_id", v.StreamID, "reason", errorReason)
		}
		return nil

	default: // pending_upload, processing
		if _, err := r.store.UpdateVideoStatus(ctx, db.UpdateVideoStatusParams{
			ID:     v.ID,
			Status: mapped,
		}); err != nil {
			return fmt.Errorf("update video status: %w", err)
		}
		return nil
	}
}

// SweepResult is the aggregate outcome of a reconciliation sweep.
type SweepResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// SyncAllProcessing reconciles every video currently in processing status.
// Per-video failures are logged and counted; they never abort the sweep.
func (r *Reconciler) SyncAllProcessing(ctx context.Context) (SweepResult, error) {
	videos, err := r.store.ListProcessingVideos(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list processing videos: %w", err)
	}

	var result SweepResult
	for _, v := range videos {
		if _, err := r.SyncVideoStatus(ctx, v.ID); err != nil {
			slog.Error("sweep: failed to sync video", "video_id", v.ID, "stream_id", v.StreamID, "error", err)
			result.Failed++
			continue
		}
		result.Synced++
	}

	slog.Info("reconciliation sweep finished", "synced", result.Synced, "failed", result.Failed)
	return result, nil
}
