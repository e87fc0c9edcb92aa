package pipeline

import (
	"context"
	"fmt"
	"testing"

	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/stream"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func newUUID(t *testing.T) pgtype.UUID {
	t.Helper()
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// fakeStore implements Store in memory with the same conditional-write
// semantics as the SQL layer.
type fakeStore struct {
	videos    map[pgtype.UUID]*db.Video
	artifacts map[pgtype.UUID]*db.ProcessingArtifacts

	statusWrites int
	cleared      []string

	artifactsErr error
	clearErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:    map[pgtype.UUID]*db.Video{},
		artifacts: map[pgtype.UUID]*db.ProcessingArtifacts{},
	}
}

func (s *fakeStore) addVideo(t *testing.T, streamID string, status db.VideoStatus) *db.Video {
	t.Helper()
	v := &db.Video{ID: newUUID(t), StreamID: streamID, Status: status}
	s.videos[v.ID] = v
	return v
}

func (s *fakeStore) GetVideoByID(ctx context.Context, id pgtype.UUID) (*db.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *v
	return &copy, nil
}

func (s *fakeStore) GetVideoByStreamID(ctx context.Context, streamID string) (*db.Video, error) {
	for _, v := range s.videos {
		if v.StreamID == streamID {
			copy := *v
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeStore) ListProcessingVideos(ctx context.Context) ([]*db.Video, error) {
	var out []*db.Video
	for _, v := range s.videos {
		if v.Status == db.VideoStatusProcessing {
			copy := *v
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateVideoStatus(ctx context.Context, params db.UpdateVideoStatusParams) (bool, error) {
	v, ok := s.videos[params.ID]
	if !ok || v.Status == params.Status {
		return false, nil
	}
	v.Status = params.Status
	v.ErrorReason = params.ErrorReason
	s.statusWrites++
	return true, nil
}

func (s *fakeStore) MarkVideoReady(ctx context.Context, id pgtype.UUID) (bool, error) {
	v, ok := s.videos[id]
	if !ok || v.Status == db.VideoStatusReady {
		return false, nil
	}
	v.Status = db.VideoStatusReady
	v.ErrorReason = nil
	s.statusWrites++
	return true, nil
}

func (s *fakeStore) SetVideoDuration(ctx context.Context, id pgtype.UUID, seconds float64) error {
	if v, ok := s.videos[id]; ok {
		v.DurationSeconds = &seconds
	}
	return nil
}

func (s *fakeStore) clear(kind string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = append(s.cleared, kind)
	return nil
}

func (s *fakeStore) DeleteTranscript(ctx context.Context, videoID pgtype.UUID) error {
	return s.clear("transcript")
}

func (s *fakeStore) DeleteChaptersByVideo(ctx context.Context, videoID pgtype.UUID) error {
	return s.clear("chapters")
}

func (s *fakeStore) DeleteTagsByVideo(ctx context.Context, videoID pgtype.UUID) error {
	return s.clear("tags")
}

func (s *fakeStore) ClearVideoAbstract(ctx context.Context, videoID pgtype.UUID) error {
	return s.clear("abstract")
}

func (s *fakeStore) GetProcessingArtifacts(ctx context.Context, videoID pgtype.UUID) (*db.ProcessingArtifacts, error) {
	if s.artifactsErr != nil {
		return nil, s.artifactsErr
	}
	a, ok := s.artifacts[videoID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

type dispatched struct {
	videoID  string
	streamID string
	phase    Phase
}

type fakeDispatcher struct {
	calls []dispatched
	err   error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, videoID, streamID string, phase Phase) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, dispatched{videoID: videoID, streamID: streamID, phase: phase})
	return nil
}

// fakeStreamAPI serves canned provider states keyed by stream uid.
type fakeStreamAPI struct {
	states map[string]*stream.Video
	errs   map[string]error
}

func (f *fakeStreamAPI) GetVideo(ctx context.Context, uid string) (*stream.Video, error) {
	if err, ok := f.errs[uid]; ok {
		return nil, err
	}
	v, ok := f.states[uid]
	if !ok {
		return nil, fmt.Errorf("no such stream %q", uid)
	}
	return v, nil
}
