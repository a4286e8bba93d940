package mirrors

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

const mirrorPayload = `{
	"title": "Mirror Video",
	"author": "Someone",
	"lengthSeconds": 213,
	"viewCount": 999,
	"videoThumbnails": [{"quality": "high", "url": "https://img.example/t.jpg"}],
	"adaptiveFormats": [
		{"itag": "140", "bitrate": "130000", "type": "audio/mp4; codecs=\"mp4a.40.2\"", "url": "https://cdn.example/140"},
		{"itag": "137", "bitrate": "4500000", "type": "video/mp4; codecs=\"avc1\"", "url": "https://cdn.example/137", "resolution": "1080p"}
	],
	"formatStreams": [
		{"itag": "22", "bitrate": "2000000", "type": "video/mp4", "url": "https://cdn.example/22", "resolution": "720p"}
	]
}`

func newSelector(t *testing.T, mirrors []string) *Selector {
	t.Helper()
	agents := identity.NewRotator([]string{"test-agent"})
	log := logging.New("error", false, io.Discard)
	return New(http.DefaultClient, agents, mirrors, 5*time.Second, 1000, log)
}

func countingServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSelector_FirstHealthyMirrorWinsAndIterationStops(t *testing.T) {
	var hits1, hits2, hits3, hits4 atomic.Int32
	bad1 := countingServer(t, http.StatusBadGateway, "", &hits1)
	bad2 := countingServer(t, http.StatusServiceUnavailable, "", &hits2)
	good := countingServer(t, http.StatusOK, mirrorPayload, &hits3)
	never := countingServer(t, http.StatusOK, mirrorPayload, &hits4)

	s := newSelector(t, []string{bad1.URL, bad2.URL, good.URL, never.URL})
	res, err := s.Resolve(context.Background(), "abc123", types.KindVideo)
	require.NoError(t, err)

	assert.Equal(t, good.URL, res.Mirror)
	assert.Equal(t, "Mirror Video", res.Metadata.Title)
	assert.Equal(t, int64(213), res.Metadata.DurationSeconds)
	assert.Equal(t, "137", res.Format.ID, "highest-bitrate video format wins")
	assert.Len(t, res.Formats, 3)

	assert.Equal(t, int32(1), hits1.Load())
	assert.Equal(t, int32(1), hits2.Load())
	assert.Equal(t, int32(1), hits3.Load())
	assert.Zero(t, hits4.Load(), "success is terminal, later mirrors must not be probed")
}

func TestSelector_KindFilterSelectsAudio(t *testing.T) {
	var hits atomic.Int32
	good := countingServer(t, http.StatusOK, mirrorPayload, &hits)

	s := newSelector(t, []string{good.URL})
	res, err := s.Resolve(context.Background(), "abc123", types.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, "140", res.Format.ID)
}

func TestSelector_AllMirrorsExhausted(t *testing.T) {
	var hits1, hits2 atomic.Int32
	bad1 := countingServer(t, http.StatusBadGateway, "", &hits1)
	bad2 := countingServer(t, http.StatusOK, "not json", &hits2)

	s := newSelector(t, []string{bad1.URL, bad2.URL})
	_, err := s.Resolve(context.Background(), "abc123", types.KindVideo)
	require.Error(t, err)
	assert.Equal(t, types.ErrAllMirrorsExhausted, types.KindOf(err))
}

func TestSelector_ZeroFormatsIsTerminal(t *testing.T) {
	var hits1, hits2 atomic.Int32
	empty := countingServer(t, http.StatusOK, `{"title": "No Formats"}`, &hits1)
	healthy := countingServer(t, http.StatusOK, mirrorPayload, &hits2)

	s := newSelector(t, []string{empty.URL, healthy.URL})
	_, err := s.Resolve(context.Background(), "abc123", types.KindVideo)
	require.Error(t, err)
	assert.Equal(t, types.ErrNoFormats, types.KindOf(err))
	assert.Zero(t, hits2.Load(), "a decodable payload with zero formats is terminal")
}
