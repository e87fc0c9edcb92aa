package worker

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"brightline.video/relay/internal/pipeline"
)

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" Go ", "go", "", "Concurrency", "GO", "channels"})
	require.Equal(t, []string{"go", "concurrency", "channels"}, got)
}

func TestNormalizeTags_AllEmpty(t *testing.T) {
	require.Nil(t, normalizeTags([]string{"", "   "}))
}

func TestDecodePhasePayload(t *testing.T) {
	task := asynq.NewTask("phase:tagging", []byte(`{"video_id":"b2b5d7c4-4f6e-4f1a-9c3e-2f8a1d6e5b4a","stream_id":"abc123","phase":"tagging"}`))
	payload, videoUUID, err := decodePhasePayload(task)
	require.NoError(t, err)
	require.Equal(t, "abc123", payload.StreamID)
	require.Equal(t, pipeline.PhaseTagging, payload.Phase)
	require.Equal(t, payload.VideoID, videoUUID.String())
}

func TestDecodePhasePayload_BadID(t *testing.T) {
	task := asynq.NewTask("phase:tagging", []byte(`{"video_id":"not-a-uuid","stream_id":"abc123","phase":"tagging"}`))
	_, _, err := decodePhasePayload(task)
	require.Error(t, err)
}

func TestDecodePhasePayload_BadJSON(t *testing.T) {
	task := asynq.NewTask("phase:tagging", []byte(`{`))
	_, _, err := decodePhasePayload(task)
	require.Error(t, err)
}
