package pipeline

import (
	"context"
	"fmt"
	"testing"

	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/stream"
	"github.com/stretchr/testify/require"
)

func TestMapStreamState(t *testing.T) {
	cases := map[string]db.VideoStatus{
		"pendingupload": db.VideoStatusPendingUpload,
		"downloading":   db.VideoStatusProcessing,
		"queued":        db.VideoStatusProcessing,
		"inprogress":    db.VideoStatusProcessing,
		"ready":         db.VideoStatusReady,
		"error":         db.VideoStatusError,
	}
	for state, want := range cases {
		got, ok := MapStreamState(state)
		require.True(t, ok, state)
		require.Equal(t, want, got)
	}

	for _, state := range []string{"", "READY", "unknown"} {
		_, ok := MapStreamState(state)
		require.False(t, ok, state)
	}
}

func TestSyncVideoStatus_Idempotent(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	streams := &fakeStreamAPI{states: map[string]*stream.Video{
		"s1": {UID: "s1", State: stream.StateInProgress, PctComplete: 60},
	}}
	jobs := &fakeDispatcher{}
	r := NewReconciler(store, streams, jobs)

	// Two syncs with an unchanged provider state produce zero writes.
	for i := 0; i < 2; i++ {
		out, err := r.SyncVideoStatus(context.Background(), v.ID)
		require.NoError(t, err)
		require.Equal(t, db.VideoStatusProcessing, out.Status)
	}
	require.Zero(t, store.statusWrites)
	require.Empty(t, jobs.calls)
}

func TestSyncVideoStatus_ReadyDispatchesTranscriptionOnce(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	streams := &fakeStreamAPI{states: map[string]*stream.Video{
		"s1": {UID: "s1", State: stream.StateReady, ReadyToStream: true, Duration: 93.5},
	}}
	jobs := &fakeDispatcher{}
	r := NewReconciler(store, streams, jobs)

	out, err := r.SyncVideoStatus(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, db.VideoStatusReady, out.Status)
	require.NotNil(t, out.DurationSeconds)
	require.Equal(t, 93.5, *out.DurationSeconds)

	// A second sync sees ready already and must not dispatch again.
	_, err = r.SyncVideoStatus(context.Background(), v.ID)
	require.NoError(t, err)

	require.Len(t, jobs.calls, 1)
	require.Equal(t, PhaseTranscription, jobs.calls[0].phase)
	require.Equal(t, v.ID.String(), jobs.calls[0].videoID)
	require.Equal(t, "s1", jobs.calls[0].streamID)
}

func TestSyncVideoStatus_ErrorState(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	streams := &fakeStreamAPI{states: map[string]*stream.Video{
		"s1": {UID: "s1", State: stream.StateError, ErrorReasonCode: "ERR_CODEC"},
	}}
	r := NewReconciler(store, streams, &fakeDispatcher{})

	out, err := r.SyncVideoStatus(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, db.VideoStatusError, out.Status)
	require.NotNil(t, out.ErrorReason)
	require.Equal(t, "ERR_CODEC", *out.ErrorReason)
}

func TestSyncVideoStatus_NotFound(t *testing.T) {
	r := NewReconciler(newFakeStore(), &fakeStreamAPI{}, &fakeDispatcher{})
	_, err := r.SyncVideoStatus(context.Background(), newUUID(t))
	require.ErrorIs(t, err, ErrVideoNotFound)
}

func TestSyncVideoStatus_ProviderFailure(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	streams := &fakeStreamAPI{errs: map[string]error{"s1": fmt.Errorf("connection reset")}}
	r := NewReconciler(store, streams, &fakeDispatcher{})

	_, err := r.SyncVideoStatus(context.Background(), v.ID)
	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)

	// No state change on provider failure.
	require.Zero(t, store.statusWrites)
}

func TestSyncVideoStatus_UnknownProviderState(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusProcessing)
	streams := &fakeStreamAPI{states: map[string]*stream.Video{
		"s1": {UID: "s1", State: "defrosting"},
	}}
	r := NewReconciler(store, streams, &fakeDispatcher{})

	_, err := r.SyncVideoStatus(context.Background(), v.ID)
	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	require.Zero(t, store.statusWrites)
}

func TestApplyWebhook_DuplicateReadyDeliveries(t *testing.T) {
	store := newFakeStore()
	v := store.addVideo(t, "s1", db.VideoStatusPendingUpload)
	jobs := &fakeDispatcher{}
	r := NewReconciler(store, &fakeStreamAPI{}, jobs)

	payload := &stream.WebhookPayload{
		UID:           "s1",
		ReadyToStream: true,
		Status:        stream.WebhookStatus{State: stream.StateReady},
	}

	require.NoError(t, r.ApplyWebhook(context.Background(), payload))
	require.NoError(t, r.ApplyWebhook(context.Background(), payload))

	// Duplicate deliveries of the same terminal event enqueue exactly once.
	require.Len(t, jobs.calls, 1)
	require.Equal(t, PhaseTranscription, jobs.calls[0].phase)

	got, err := store.GetVideoByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, db.VideoStatusReady, got.Status)
}

func TestApplyWebhook_ReadyFlagWithoutState(t *testing.T) {
	store := newFakeStore()
	store.addVideo(t, "s1", db.VideoStatusProcessing)
	jobs := &fakeDispatcher{}
	r := NewReconciler(store, &fakeStreamAPI{}, jobs)

	payload := &stream.WebhookPayload{UID: "s1", ReadyToStream: true}
	require.NoError(t, r.ApplyWebhook(context.Background(), payload))
	require.Len(t, jobs.calls, 1)
}

func TestApplyWebhook_UnknownStream(t *testing.T) {
	r := NewReconciler(newFakeStore(), &fakeStreamAPI{}, &fakeDispatcher{})
	err := r.ApplyWebhook(context.Background(), &stream.WebhookPayload{UID: "ghost"})
	require.ErrorIs(t, err, ErrVideoNotFound)
}

func TestSyncAllProcessing_IsolatesFailures(t *testing.T) {
	store := newFakeStore()
	a := store.addVideo(t, "a", db.VideoStatusProcessing)
	b := store.addVideo(t, "b", db.VideoStatusProcessing)
	c := store.addVideo(t, "c", db.VideoStatusProcessing)

	streams := &fakeStreamAPI{
		states: map[string]*stream.Video{
			"a": {UID: "a", State: stream.StateReady},
			"c": {UID: "c", State: stream.StateInProgress},
		},
		errs: map[string]error{"b": fmt.Errorf("timeout")},
	}
	jobs := &fakeDispatcher{}
	r := NewReconciler(store, streams, jobs)

	result, err := r.SyncAllProcessing(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Synced)
	require.Equal(t, 1, result.Failed)

	gotA, _ := store.GetVideoByID(context.Background(), a.ID)
	require.Equal(t, db.VideoStatusReady, gotA.Status)
	gotB, _ := store.GetVideoByID(context.Background(), b.ID)
	require.Equal(t, db.VideoStatusProcessing, gotB.Status)
	gotC, _ := store.GetVideoByID(context.Background(), c.ID)
	require.Equal(t, db.VideoStatusProcessing, gotC.Status)
}
