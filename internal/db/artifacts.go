package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UpsertTranscriptParams struct {
	VideoID  pgtype.UUID
	Language string
	Content  string
}

// UpsertTranscript writes the transcript for a video. Re-running the
// transcription phase overwrites the previous content in place.
func (q *Queries) UpsertTranscript(ctx context.Context, params UpsertTranscriptParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO transcripts (video_id, language, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (video_id) DO UPDATE
		SET language = EXCLUDED.language, content = EXCLUDED.content, updated_at = now()`,
		params.VideoID, params.Language, params.Content)
	return err
}

func (q *Queries) GetTranscript(ctx context.Context, videoID pgtype.UUID) (*Transcript, error) {
	var t Transcript
	err := q.db.QueryRow(ctx, `
		SELECT video_id, language, content, created_at, updated_at
		FROM transcripts WHERE video_id = $1`, videoID).
		Scan(&t.VideoID, &t.Language, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *Queries) DeleteTranscript(ctx context.Context, videoID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM transcripts WHERE video_id = $1`, videoID)
	return err
}

type InsertChapterParams struct {
	VideoID      pgtype.UUID
	StartSeconds float64
	EndSeconds   float64
	Title        string
	Summary      string
}

func (q *Queries) InsertChapter(ctx context.Context, params InsertChapterParams) (*Chapter, error) {
	chapterID := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	var ch Chapter
	err := q.db.QueryRow(ctx, `
		INSERT INTO chapters (id, video_id, start_seconds, end_seconds, title, summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, video_id, start_seconds, end_seconds, title, summary, created_at`,
		chapterID, params.VideoID, params.StartSeconds, params.EndSeconds, params.Title, params.Summary).
		Scan(&ch.ID, &ch.VideoID, &ch.StartSeconds, &ch.EndSeconds, &ch.Title, &ch.Summary, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (q *Queries) ListChapters(ctx context.Context, videoID pgtype.UUID) ([]*Chapter, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, video_id, start_seconds, end_seconds, title, summary, created_at
		FROM chapters WHERE video_id = $1
		ORDER BY start_seconds ASC`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.VideoID, &ch.StartSeconds, &ch.EndSeconds, &ch.Title, &ch.Summary, &ch.CreatedAt); err != nil {
			return nil, err
		}
		chapters = append(chapters, &ch)
	}
	return chapters, rows.Err()
}

func (q *Queries) DeleteChaptersByVideo(ctx context.Context, videoID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM chapters WHERE video_id = $1`, videoID)
	return err
}

func (q *Queries) InsertVideoTag(ctx context.Context, videoID pgtype.UUID, tag string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO video_tags (video_id, tag) VALUES ($1, $2)
		ON CONFLICT (video_id, tag) DO NOTHING`, videoID, tag)
	return err
}

func (q *Queries) ListVideoTags(ctx context.Context, videoID pgtype.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT tag FROM video_tags WHERE video_id = $1 ORDER BY tag ASC`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (q *Queries) DeleteTagsByVideo(ctx context.Context, videoID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM video_tags WHERE video_id = $1`, videoID)
	return err
}

// GetProcessingArtifacts collects the presence of every phase output in one
// round-trip. The completeness predicate is derived from this, on demand.
func (q *Queries) GetProcessingArtifacts(ctx context.Context, videoID pgtype.UUID) (*ProcessingArtifacts, error) {
	var a ProcessingArtifacts
	err := q.db.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM transcripts t WHERE t.video_id = v.id),
			(SELECT count(*) FROM video_tags vt WHERE vt.video_id = v.id),
			(SELECT count(*) FROM chapters c WHERE c.video_id = v.id),
			v.abstract IS NOT NULL,
			v.title IS NOT NULL
		FROM videos v WHERE v.id = $1`, videoID).
		Scan(&a.HasTranscript, &a.TagCount, &a.ChapterCount, &a.HasAbstract, &a.HasTitle)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
