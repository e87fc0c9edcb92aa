package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/videos/abc123", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"abc123","state":"inprogress","pctComplete":42.5,"readyToStream":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	v, err := c.GetVideo(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", v.UID)
	require.Equal(t, StateInProgress, v.State)
	require.Equal(t, 42.5, v.PctComplete)
	require.False(t, v.ReadyToStream)
}

func TestGetVideo_EmptyUID(t *testing.T) {
	c := NewClient("https://stream.example.com", "")
	_, err := c.GetVideo(context.Background(), "  ")
	require.Error(t, err)
}

func TestGetVideo_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetVideo(context.Background(), "abc123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestCreateDirectUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/direct-uploads", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"u1","uploadUrl":"https://upload.example.com/u1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	du, err := c.CreateDirectUpload(context.Background(), 3600)
	require.NoError(t, err)
	require.Equal(t, "u1", du.UID)
	require.Equal(t, "https://upload.example.com/u1", du.UploadURL)
}

func TestCreateDirectUpload_MissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.CreateDirectUpload(context.Background(), 3600)
	require.Error(t, err)
}

func TestSetThumbnailTimestamp_RejectsOutOfRange(t *testing.T) {
	c := NewClient("https://stream.example.com", "")
	require.Error(t, c.SetThumbnailTimestamp(context.Background(), "u1", 1.5))
	require.Error(t, c.SetThumbnailTimestamp(context.Background(), "u1", -0.1))
}
