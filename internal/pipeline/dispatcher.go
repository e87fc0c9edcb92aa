package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// JobDispatcher enqueues a single phase job. Enqueueing is fire-and-forget:
// the queue guarantees at-least-once delivery to a phase worker.
type JobDispatcher interface {
	Dispatch(ctx context.Context, videoID, streamID string, phase Phase) error
}

// Dispatcher is the asynq-backed JobDispatcher.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, videoID, streamID string, phase Phase) error {
	if _, err := ParsePhase(string(phase)); err != nil || phase == PhaseAll {
		return fmt.Errorf("%w: cannot dispatch %q", ErrInvalidPhase, phase)
	}

	data, err := json.Marshal(PhasePayload{VideoID: videoID, StreamID: streamID, Phase: phase})
	if err != nil {
		return fmt.Errorf("marshal phase payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeForPhase(phase), data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(10*time.Minute)); err != nil {
		return fmt.Errorf("enqueue %s job: %w", phase, err)
	}

	slog.Info("dispatched phase job", "video_id", videoID, "stream_id", streamID, "phase", phase)
	return nil
}

// ScheduleSync enqueues a delayed status poll. Attempts past the backoff
// ladder are dropped; the periodic sweep takes over from there.
func (d *Dispatcher) ScheduleSync(ctx context.Context, videoID string, attempt int) error {
	if attempt < 0 || attempt >= len(SyncBackoff) {
		return nil
	}

	data, err := json.Marshal(SyncPayload{VideoID: videoID, Attempt: attempt})
	if err != nil {
		return fmt.Errorf("marshal sync payload: %w", err)
	}

	task := asynq.NewTask(TaskSyncVideo, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.ProcessIn(SyncBackoff[attempt]), asynq.MaxRetry(2)); err != nil {
		return fmt.Errorf("enqueue sync poll: %w", err)
	}
	return nil
}
