package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrag/types"
)

func newTestFetcher(handler http.HandlerFunc) (*YouTubeFetcher, func()) {
	srv := httptest.NewServer(handler)
	f := NewYouTubeFetcher("en", 5*time.Second)
	f.baseURL = srv.URL
	return f, srv.Close
}

func TestFetchParsesSegments(t *testing.T) {
	f, closeSrv := newTestFetcher(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
		w.Write([]byte(`{"events":[
			{"tStartMs":0,"dDurationMs":3000,"segs":[{"utf8":"Cats sleep "},{"utf8":"sixteen hours a day."}]},
			{"tStartMs":3000,"dDurationMs":3000,"segs":[{"utf8":"\n"}]},
			{"tStartMs":6000,"dDurationMs":3000,"segs":[{"utf8":"Dogs need daily walks."}]}
		]}`))
	})
	defer closeSrv()

	segments, err := f.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, segments, 2, "whitespace-only events are skipped")

	assert.Equal(t, "Cats sleep sixteen hours a day.", segments[0].Text)
	assert.InDelta(t, 0.0, segments[0].Start, 1e-9)
	assert.InDelta(t, 3.0, segments[0].Dur, 1e-9)
	assert.Equal(t, "Dogs need daily walks.", segments[1].Text)
	assert.InDelta(t, 6.0, segments[1].Start, 1e-9)
}

func TestFetchEmptyBodyUnavailable(t *testing.T) {
	f, closeSrv := newTestFetcher(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer closeSrv()

	_, err := f.Fetch(context.Background(), "nocaptions")
	assert.ErrorIs(t, err, types.ErrTranscriptUnavailable)
}

func TestFetchNoEventsUnavailable(t *testing.T) {
	f, closeSrv := newTestFetcher(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"events":[]}`))
	})
	defer closeSrv()

	_, err := f.Fetch(context.Background(), "empty")
	assert.ErrorIs(t, err, types.ErrTranscriptUnavailable)
}

func TestFetchErrorStatusUnavailable(t *testing.T) {
	f, closeSrv := newTestFetcher(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeSrv()

	_, err := f.Fetch(context.Background(), "gone")
	assert.ErrorIs(t, err, types.ErrTranscriptUnavailable)
}
