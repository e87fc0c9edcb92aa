package pipeline

import (
	"context"
	"fmt"
	"testing"

	"brightline.video/relay/internal/db"
	"github.com/stretchr/testify/require"
)

func TestRetrigger_InvalidPhase(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusReady)
	jobs := &fakeDispatcher{}

	_, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "subtitles", true)
	require.ErrorIs(t, err, ErrInvalidPhase)

	// Validation happens before any side effect.
	require.Empty(t, jobs.calls)
	require.Empty(t, store.cleared)
}

func TestRetrigger_VideoNotFound(t *testing.T) {
	jobs := &fakeDispatcher{}
	_, err := NewRetrigger(newFakeStore(), jobs).Run(context.Background(), newUUID(t), "tagging", false)
	require.ErrorIs(t, err, ErrVideoNotFound)
	require.Empty(t, jobs.calls)
}

func TestRetrigger_InvalidState(t *testing.T) {
	for _, status := range []db.VideoStatus{db.VideoStatusPendingUpload, db.VideoStatusError} {
		store := newFakeStore()
		v := store.addVideo(t, "s1", status)
		jobs := &fakeDispatcher{}

		_, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "transcription", true)
		require.ErrorIs(t, err, ErrInvalidState, status)
		require.Empty(t, jobs.calls)
		require.Empty(t, store.cleared)
	}
}

func TestRetrigger_NoForce_LeavesArtifacts(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	jobs := &fakeDispatcher{}

	receipt, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "chapters", false)
	require.NoError(t, err)
	require.Empty(t, store.cleared)
	require.Len(t, jobs.calls, 1)
	require.Equal(t, PhaseChapters, jobs.calls[0].phase)
	require.Equal(t, v.ID.String(), receipt.VideoID)
	require.False(t, receipt.Force)
	require.False(t, receipt.Timestamp.IsZero())
}

func TestRetrigger_Force_ClearsOwnedArtifacts(t *testing.T) {
	cases := []struct {
		phase   string
		cleared []string
	}{
		{"transcription", []string{"transcript"}},
		{"tagging", []string{"tags"}},
		{"chapters", []string{"chapters"}},
		{"abstract", []string{"abstract"}},
		// A manually edited title must survive a forced regeneration.
		{"title_generation", nil},
		{"thumbnail", nil},
	}

	for _, tc := range cases {
		t.Run(tc.phase, func(t *testing.T) {
			store := newFakeStore()
			v := store.addVideo(t, "s1", db.VideoStatusReady)
			jobs := &fakeDispatcher{}

			receipt, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, tc.phase, true)
			require.NoError(t, err)
			require.Equal(t, tc.cleared, store.cleared)
			require.Len(t, jobs.calls, 1)
			require.Equal(t, Phase(tc.phase), jobs.calls[0].phase)
			require.True(t, receipt.Force)
		})
	}
}

func TestRetrigger_All_RestartsChainFromTranscription(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusReady)
	jobs := &fakeDispatcher{}

	receipt, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "all", true)
	require.NoError(t, err)

	// Everything except the title is reset.
	require.Equal(t, []string{"transcript", "chapters", "tags", "abstract"}, store.cleared)

	// Exactly one job: transcription, relying on the chain to cascade.
	require.Len(t, jobs.calls, 1)
	require.Equal(t, PhaseTranscription, jobs.calls[0].phase)
	require.Equal(t, "s1", jobs.calls[0].streamID)
	require.Equal(t, PhaseAll, receipt.Phase)
}

func TestRetrigger_All_NoForce_KeepsArtifacts(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	jobs := &fakeDispatcher{}

	_, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "all", false)
	require.NoError(t, err)
	require.Empty(t, store.cleared)
	require.Len(t, jobs.calls, 1)
	require.Equal(t, PhaseTranscription, jobs.calls[0].phase)
}

func TestRetrigger_EnqueueFailurePropagates(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusReady)
	jobs := &fakeDispatcher{err: fmt.Errorf("redis down")}

	_, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "tagging", true)
	require.Error(t, err)
	// Artifacts were cleared before the enqueue failed; nothing rolls that
	// back, the caller has to retry.
	require.Equal(t, []string{"tags"}, store.cleared)
}

func TestRetrigger_ClearFailureStopsBeforeEnqueue(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusReady)
	store.clearErr = fmt.Errorf("db down")
	jobs := &fakeDispatcher{}

	_, err := NewRetrigger(store, jobs).Run(context.Background(), v.ID, "chapters", true)
	require.Error(t, err)
	require.Empty(t, jobs.calls)
}
