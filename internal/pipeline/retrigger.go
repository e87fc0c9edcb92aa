package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"brightline.video/relay/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Retrigger re-runs one phase or the whole pipeline for a video that has
// finished uploading, optionally clearing the prior artifacts first.
type Retrigger struct {
	store Store
	jobs  JobDispatcher
}

func NewRetrigger(store Store, jobs JobDispatcher) *Retrigger {
	return &Retrigger{store: store, jobs: jobs}
}

// Receipt confirms an accepted retrigger. The job runs asynchronously; the
// receipt does not mean the phase completed.
type Receipt struct {
	VideoID   string    `json:"video_id"`
	Phase     Phase     `json:"phase"`
	Force     bool      `json:"force"`
	Timestamp time.Time `json:"timestamp"`
}

// Run validates, optionally clears the phase's artifacts, and enqueues
// exactly one job: the requested phase, or transcription for "all" (the
// chain cascades from there).
func (rt *Retrigger) Run(ctx context.Context, videoID pgtype.UUID, rawPhase string, force bool) (*Receipt, error) {
	phase, err := ParsePhase(rawPhase)
	if err != nil {
		return nil, err
	}

	v, err := rt.store.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("fetch video: %w", err)
	}

	if v.Status != db.VideoStatusReady && v.Status != db.VideoStatusProcessing {
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidState, v.Status)
	}

	if force {
		if err := rt.clearArtifacts(ctx, videoID, phase); err != nil {
			return nil, fmt.Errorf("clear %s artifacts: %w", phase, err)
		}
	}

	target := phase
	if phase == PhaseAll {
		target = PhaseTranscription
	}

	if err := rt.jobs.Dispatch(ctx, videoID.String(), v.StreamID, target); err != nil {
		if force {
			// Artifacts are gone and no replacement job exists. Nothing rolls
			// this back (the queue is outside the transaction); surface it.
			slog.Error("artifacts cleared but job enqueue failed",
				"video_id", videoID, "phase", phase, "error", err)
		}
		return nil, err
	}

	slog.Info("processing retriggered", "video_id", videoID, "phase", phase, "force", force)

	return &Receipt{
		VideoID:   videoID.String(),
		Phase:     phase,
		Force:     force,
		Timestamp: time.Now().UTC(),
	}, nil
}

// clearArtifacts deletes exactly the artifacts owned by the phase.
// title_generation deliberately clears nothing: the stored title may have
// been manually edited and force must not discard it.
func (rt *Retrigger) clearArtifacts(ctx context.Context, videoID pgtype.UUID, phase Phase) error {
	switch phase {
	case PhaseTranscription:
		return rt.store.DeleteTranscript(ctx, videoID)
	case PhaseTagging:
		return rt.store.DeleteTagsByVideo(ctx, videoID)
	case PhaseChapters:
		return rt.store.DeleteChaptersByVideo(ctx, videoID)
	case PhaseAbstract:
		return rt.store.ClearVideoAbstract(ctx, videoID)
	case PhaseTitleGeneration, PhaseThumbnail:
		return nil
	case PhaseAll:
		if err := rt.store.DeleteTranscript(ctx, videoID); err != nil {
			return err
		}
		if err := rt.store.DeleteChaptersByVideo(ctx, videoID); err != nil {
			return err
		}
		if err := rt.store.DeleteTagsByVideo(ctx, videoID); err != nil {
			return err
		}
		return rt.store.ClearVideoAbstract(ctx, videoID)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPhase, phase)
	}
}
