package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const videoColumns = `id, stream_id, title, abstract, status, error_reason, duration_seconds, created_at, updated_at`

func scanVideo(row pgx.Row) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.StreamID, &v.Title, &v.Abstract, &v.Status, &v.ErrorReason, &v.DurationSeconds, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type InsertVideoParams struct {
	StreamID string
	Title    *string
}

// InsertVideo creates a new video row in pending_upload state.
func (q *Queries) InsertVideo(ctx context.Context, params InsertVideoParams) (*Video, error) {
	videoID := uuid.New()
	pgUUID := pgtype.UUID{Bytes: videoID, Valid: true}

	row := q.db.QueryRow(ctx, `
		INSERT INTO videos (id, stream_id, title, status)
		VALUES ($1, $2, $3, 'pending_upload')
		RETURNING `+videoColumns,
		pgUUID, params.StreamID, params.Title)
	return scanVideo(row)
}

func (q *Queries) GetVideoByID(ctx context.Context, id pgtype.UUID) (*Video, error) {
	row := q.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

func (q *Queries) GetVideoByStreamID(ctx context.Context, streamID string) (*Video, error) {
	row := q.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE stream_id = $1`, streamID)
	return scanVideo(row)
}

func (q *Queries) ListVideos(ctx context.Context, limit, offset int) ([]*Video, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+videoColumns+` FROM videos
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListProcessingVideos returns every video currently in processing state,
// oldest first so stalled videos get reconciled before fresh ones.
func (q *Queries) ListProcessingVideos(ctx context.Context) ([]*Video, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE status = 'processing'
		ORDER BY updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectVideos(rows)
}

func (q *Queries) ListVideosByIDs(ctx context.Context, ids []pgtype.UUID) ([]*Video, error) {
	rows, err := q.db.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]*Video, error) {
	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

type UpdateVideoStatusParams struct {
	ID          pgtype.UUID
	Status      VideoStatus
	ErrorReason *string
}

// UpdateVideoStatus writes the status only when it differs from the stored
// one. Returns whether a row was actually updated, so repeated reconciliation
// with an unchanged provider state is a no-op.
func (q *Queries) UpdateVideoStatus(ctx context.Context, params UpdateVideoStatusParams) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE videos SET status = $2, error_reason = $3, updated_at = now()
		WHERE id = $1 AND status <> $2`,
		params.ID, params.Status, params.ErrorReason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkVideoReady is the compare-and-swap transition into ready. The caller
// dispatches the first pipeline phase only when this reports a change, which
// keeps duplicate webhook deliveries from double-enqueueing.
func (q *Queries) MarkVideoReady(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE videos SET status = 'ready', error_reason = NULL, updated_at = now()
		WHERE id = $1 AND status <> 'ready'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *Queries) SetVideoDuration(ctx context.Context, id pgtype.UUID, seconds float64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE videos SET duration_seconds = $2, updated_at = now()
		WHERE id = $1`, id, seconds)
	return err
}

func (q *Queries) SetVideoTitle(ctx context.Context, id pgtype.UUID, title string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE videos SET title = $2, updated_at = now() WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) SetVideoAbstract(ctx context.Context, id pgtype.UUID, abstract string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE videos SET abstract = $2, updated_at = now() WHERE id = $1`, id, abstract)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) ClearVideoAbstract(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE videos SET abstract = NULL, updated_at = now() WHERE id = $1`, id)
	return err
}

// DeleteVideo removes the video row; transcript, chapters and tags go with
// it via ON DELETE CASCADE.
func (q *Queries) DeleteVideo(ctx context.Context, id pgtype.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
