package pipeline

import (
	"context"

	"brightline.video/relay/internal/db"
	"github.com/jackc/pgx/v5/pgtype"
)

// Store is the slice of the query layer the pipeline components need.
// *db.Queries satisfies it.
type Store interface {
	GetVideoByID(ctx context.Context, id pgtype.UUID) (*db.Video, error)
	GetVideoByStreamID(ctx context.Context, streamID string) (*db.Video, error)
	ListProcessingVideos(ctx context.Context) ([]*db.Video, error)
	UpdateVideoStatus(ctx context.Context, params db.UpdateVideoStatusParams) (bool, error)
	MarkVideoReady(ctx context.Context, id pgtype.UUID) (bool, error)
	SetVideoDuration(ctx context.Context, id pgtype.UUID, seconds float64) error
	DeleteTranscript(ctx context.Context, videoID pgtype.UUID) error
	DeleteChaptersByVideo(ctx context.Context, videoID pgtype.UUID) error
	DeleteTagsByVideo(ctx context.Context, videoID pgtype.UUID) error
	ClearVideoAbstract(ctx context.Context, videoID pgtype.UUID) error
	GetProcessingArtifacts(ctx context.Context, videoID pgtype.UUID) (*db.ProcessingArtifacts, error)
}
