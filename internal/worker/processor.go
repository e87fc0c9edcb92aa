// Package worker consumes pipeline jobs from the queue. Each phase handler
// writes its artifact and then dispatches the next phase in the chain.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brightline.video/relay/internal/ai"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
	"brightline.video/relay/internal/vector"
)

// Thumbnail poster frame, as a fraction of the video duration. Early enough
// to skip black lead-in frames, late enough to show content.
const thumbnailTimestampPct = 0.1

var titleCaser = cases.Title(language.AmericanEnglish)

type Processor struct {
	dbc     *db.DatabaseConnection
	streams *stream.Client
	ai      *ai.Client
	vectors *vector.Client
	jobs    *pipeline.Dispatcher
	sync    *pipeline.Reconciler
}

func NewProcessor(dbc *db.DatabaseConnection, streams *stream.Client, aiClient *ai.Client, vectors *vector.Client, jobs *pipeline.Dispatcher, sync *pipeline.Reconciler) *Processor {
	return &Processor{
		dbc:     dbc,
		streams: streams,
		ai:      aiClient,
		vectors: vectors,
		jobs:    jobs,
		sync:    sync,
	}
}

// Handler registers every queue handler on an asynq mux.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(pipeline.TaskSyncVideo, p.handleSyncPoll)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseTranscription), p.handleTranscription)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseTagging), p.handleTagging)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseChapters), p.handleChapters)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseAbstract), p.handleAbstract)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseTitleGeneration), p.handleTitleGeneration)
	mux.HandleFunc(pipeline.TaskTypeForPhase(pipeline.PhaseThumbnail), p.handleThumbnail)
	return mux
}

func decodePhasePayload(task *asynq.Task) (pipeline.PhasePayload, pgtype.UUID, error) {
	var payload pipeline.PhasePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, pgtype.UUID{}, fmt.Errorf("decode phase payload: %w", err)
	}
	var videoUUID pgtype.UUID
	if err := videoUUID.Scan(payload.VideoID); err != nil {
		return payload, pgtype.UUID{}, fmt.Errorf("invalid video id %q: %w", payload.VideoID, err)
	}
	return payload, videoUUID, nil
}

// dispatchNext advances the chain after the handler's artifact write has
// committed. The final phase ends the chain.
func (p *Processor) dispatchNext(ctx context.Context, payload pipeline.PhasePayload) error {
	next, ok := payload.Phase.Next()
	if !ok {
		return nil
	}
	return p.jobs.Dispatch(ctx, payload.VideoID, payload.StreamID, next)
}

// handleSyncPoll is the pull half of reconciliation: it compensates for
// missed or delayed webhooks on the backoff ladder after upload.
func (p *Processor) handleSyncPoll(ctx context.Context, task *asynq.Task) error {
	var payload pipeline.SyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode sync payload: %w", err)
	}
	var videoUUID pgtype.UUID
	if err := videoUUID.Scan(payload.VideoID); err != nil {
		return fmt.Errorf("invalid video id %q: %w", payload.VideoID, err)
	}

	v, err := p.sync.SyncVideoStatus(ctx, videoUUID)
	if err != nil {
		if errors.Is(err, pipeline.ErrVideoNotFound) {
			// Deleted while the poll was queued; drop.
			return nil
		}
		// Provider hiccups are expected here; keep polling rather than
		// burning queue retries.
		slog.Warn("sync poll failed", "video_id", payload.VideoID, "attempt", payload.Attempt, "error", err)
		return p.jobs.ScheduleSync(ctx, payload.VideoID, payload.Attempt+1)
	}

	if v.Status == db.VideoStatusPendingUpload || v.Status == db.VideoStatusProcessing {
		return p.jobs.ScheduleSync(ctx, payload.VideoID, payload.Attempt+1)
	}
	return nil
}

func (p *Processor) handleTranscription(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	sv, err := p.streams.GetVideo(ctx, payload.StreamID)
	if err != nil {
		return fmt.Errorf("fetch stream for transcription: %w", err)
	}
	if sv.PlaybackURL == "" {
		return fmt.Errorf("stream %s has no playback url yet", payload.StreamID)
	}

	result, err := p.ai.Transcribe(ctx, sv.PlaybackURL)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	q := p.dbc.Queries(ctx)
	if err := q.UpsertTranscript(ctx, db.UpsertTranscriptParams{
		VideoID:  videoUUID,
		Language: result.Language,
		Content:  result.Text,
	}); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	if p.vectors != nil {
		if err := p.vectors.UpsertTranscript(ctx, payload.VideoID, result.Text); err != nil {
			// Search indexing is best-effort; the transcript itself is stored.
			slog.Warn("failed to index transcript", "video_id", payload.VideoID, "error", err)
		}
	}

	slog.Info("transcription stored", "video_id", payload.VideoID, "language", result.Language, "chars", len(result.Text))
	return p.dispatchNext(ctx, payload)
}

func (p *Processor) handleTagging(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	q := p.dbc.Queries(ctx)
	transcript, err := q.GetTranscript(ctx, videoUUID)
	if err != nil {
		// Transcript may have been force-cleared while this job was queued;
		// the queue retries and eventually gives up.
		return fmt.Errorf("transcript not available for tagging: %w", err)
	}

	tags, err := p.ai.SuggestTags(ctx, transcript.Content)
	if err != nil {
		return fmt.Errorf("suggest tags: %w", err)
	}
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return fmt.Errorf("no usable tags returned for video %s", payload.VideoID)
	}

	qtx, tx, err := p.dbc.NewWithTX(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := qtx.DeleteTagsByVideo(ctx, videoUUID); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	for _, tag := range tags {
		if err := qtx.InsertVideoTag(ctx, videoUUID, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tags: %w", err)
	}

	slog.Info("tags stored", "video_id", payload.VideoID, "count", len(tags))
	return p.dispatchNext(ctx, payload)
}

func (p *Processor) handleChapters(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	q := p.dbc.Queries(ctx)
	transcript, err := q.GetTranscript(ctx, videoUUID)
	if err != nil {
		return fmt.Errorf("transcript not available for chapters: %w", err)
	}
	video, err := q.GetVideoByID(ctx, videoUUID)
	if err != nil {
		return fmt.Errorf("fetch video for chapters: %w", err)
	}

	var duration float64
	if video.DurationSeconds != nil {
		duration = *video.DurationSeconds
	}

	suggestions, err := p.ai.GenerateChapters(ctx, transcript.Content, duration)
	if err != nil {
		return fmt.Errorf("generate chapters: %w", err)
	}
	if len(suggestions) == 0 {
		return fmt.Errorf("no chapters returned for video %s", payload.VideoID)
	}

	qtx, tx, err := p.dbc.NewWithTX(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := qtx.DeleteChaptersByVideo(ctx, videoUUID); err != nil {
		return fmt.Errorf("replace chapters: %w", err)
	}
	for i, ch := range suggestions {
		title := strings.TrimSpace(ch.Title)
		if title == "" {
			title = titleCaser.String(fmt.Sprintf("chapter %d", i+1))
		}
		if _, err := qtx.InsertChapter(ctx, db.InsertChapterParams{
			VideoID:      videoUUID,
			StartSeconds: ch.StartSeconds,
			EndSeconds:   ch.EndSeconds,
			Title:        title,
			Summary:      strings.TrimSpace(ch.Summary),
		}); err != nil {
			return fmt.Errorf("insert chapter: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chapters: %w", err)
	}

	slog.Info("chapters stored", "video_id", payload.VideoID, "count", len(suggestions))
	return p.dispatchNext(ctx, payload)
}

func (p *Processor) handleAbstract(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	q := p.dbc.Queries(ctx)
	transcript, err := q.GetTranscript(ctx, videoUUID)
	if err != nil {
		return fmt.Errorf("transcript not available for abstract: %w", err)
	}

	abstract, err := p.ai.Summarize(ctx, transcript.Content)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if err := q.SetVideoAbstract(ctx, videoUUID, abstract); err != nil {
		return fmt.Errorf("store abstract: %w", err)
	}

	slog.Info("abstract stored", "video_id", payload.VideoID)
	return p.dispatchNext(ctx, payload)
}

func (p *Processor) handleTitleGeneration(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	q := p.dbc.Queries(ctx)
	transcript, err := q.GetTranscript(ctx, videoUUID)
	if err != nil {
		return fmt.Errorf("transcript not available for title generation: %w", err)
	}

	title, err := p.ai.SuggestTitle(ctx, transcript.Content)
	if err != nil {
		return fmt.Errorf("suggest title: %w", err)
	}
	if err := q.SetVideoTitle(ctx, videoUUID, title); err != nil {
		return fmt.Errorf("store title: %w", err)
	}

	slog.Info("title stored", "video_id", payload.VideoID, "title", title)
	return p.dispatchNext(ctx, payload)
}

func (p *Processor) handleThumbnail(ctx context.Context, task *asynq.Task) error {
	payload, videoUUID, err := decodePhasePayload(task)
	if err != nil {
		return err
	}

	if err := p.streams.SetThumbnailTimestamp(ctx, payload.StreamID, thumbnailTimestampPct); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}

	status := pipeline.NewCompletionChecker(p.dbc.Queries(ctx)).Status(ctx, videoUUID)
	slog.Info("pipeline chain finished", "video_id", payload.VideoID, "complete", status.Complete)
	return nil
}

// normalizeTags lowercases, trims and dedupes while keeping order.
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
