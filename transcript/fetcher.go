package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidrag/types"
)

// Fetcher returns the time-ordered caption segments of a video in the
// configured language, or ErrTranscriptUnavailable when the video has no
// usable captions.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]types.Segment, error)
}

const timedTextURL = "https://www.youtube.com/api/timedtext"

// YouTubeFetcher reads captions from the YouTube timedtext endpoint in
// json3 format.
type YouTubeFetcher struct {
	client  *http.Client
	baseURL string
	lang    string
	timeout time.Duration
}

func NewYouTubeFetcher(lang string, timeout time.Duration) *YouTubeFetcher {
	return &YouTubeFetcher{
		client:  http.DefaultClient,
		baseURL: timedTextURL,
		lang:    lang,
		timeout: timeout,
	}
}

type timedTextResponse struct {
	Events []struct {
		StartMs int64 `json:"tStartMs"`
		DurMs   int64 `json:"dDurationMs"`
		Segs    []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) ([]types.Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", f.lang)
	q.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: timedtext status %d for video %s",
			types.ErrTranscriptUnavailable, resp.StatusCode, videoID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript response: %w", err)
	}

	// YouTube answers 200 with an empty body when captions are disabled
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: no captions for video %s", types.ErrTranscriptUnavailable, videoID)
	}

	var tt timedTextResponse
	if err := json.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}

	var segments []types.Segment
	for _, ev := range tt.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, types.Segment{
			Start: float64(ev.StartMs) / 1000,
			Dur:   float64(ev.DurMs) / 1000,
			Text:  text,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no caption segments for video %s", types.ErrTranscriptUnavailable, videoID)
	}
	return segments, nil
}
