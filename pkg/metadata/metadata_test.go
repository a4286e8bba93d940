package metadata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab-go/pkg/identity"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

func testLogger() *logging.Logger {
	return logging.New("error", false, io.Discard)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "PT3M33S", want: 213},
		{in: "PT1H2M3S", want: 3723},
		{in: "PT45S", want: 45},
		{in: "PT2H", want: 7200},
		{in: "P1DT2H", want: 93600},
		{in: "", want: 0},
		{in: "3m33s", wantErr: true},
		{in: "PT3X", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseISODuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

const providerPayload = `{
	"items": [{
		"snippet": {
			"title": "Test Video",
			"channelTitle": "Test Channel",
			"description": "A description",
			"thumbnails": {"high": {"url": "https://img.example/hq.jpg"}}
		},
		"contentDetails": {"duration": "PT3M33S"},
		"statistics": {"viewCount": "12345"}
	}]
}`

func newAPIResolver(t *testing.T, handler http.HandlerFunc, keys []string) *APIResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pool := identity.NewCredentialPool(keys)
	agents := identity.NewRotator([]string{"test-agent"})
	return NewAPIResolver(srv.Client(), pool, agents, srv.URL, testLogger())
}

func TestAPIResolver_Resolve(t *testing.T) {
	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "key1", req.URL.Query().Get("key"))
		assert.Equal(t, "abc123", req.URL.Query().Get("id"))
		w.Write([]byte(providerPayload))
	}, []string{"key1"})

	meta, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Test Video", meta.Title)
	assert.Equal(t, "Test Channel", meta.Author)
	assert.Equal(t, int64(213), meta.DurationSeconds)
	assert.Equal(t, int64(12345), meta.ViewCount)
	assert.Equal(t, "https://img.example/hq.jpg", meta.ThumbnailURL)
}

func TestAPIResolver_QuotaExceeded(t *testing.T) {
	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, []string{"key1"})

	_, err := r.Resolve(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, types.ErrQuotaExceeded, types.KindOf(err))
}

func TestAPIResolver_NotFound(t *testing.T) {
	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}, []string{"key1"})

	_, err := r.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.KindOf(err))
}

func TestAPIResolver_UpstreamError(t *testing.T) {
	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, []string{"key1"})

	_, err := r.Resolve(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstream, types.KindOf(err))
}

func TestAPIResolver_NoCredentials(t *testing.T) {
	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("provider must not be called without a credential")
	}, nil)

	_, err := r.Resolve(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, types.ErrNoCredentials, types.KindOf(err))
}

// stubResolver implements interfaces.MetadataResolver for chain tests.
type stubResolver struct {
	meta  *types.VideoMetadata
	err   error
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainedResolver_PrimaryWins(t *testing.T) {
	primary := &stubResolver{meta: &types.VideoMetadata{Title: "from primary"}}
	fallback := &stubResolver{meta: &types.VideoMetadata{Title: "from fallback"}}
	chain := NewChainedResolver(primary, fallback, testLogger())

	meta, err := chain.Resolve(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "from primary", meta.Title)
	assert.Zero(t, fallback.calls, "fallback must not run when primary succeeds")
}

func TestChainedResolver_FallsBack(t *testing.T) {
	primary := &stubResolver{err: types.NewError(types.ErrQuotaExceeded, "quota")}
	fallback := &stubResolver{meta: &types.VideoMetadata{Title: "from fallback"}}
	chain := NewChainedResolver(primary, fallback, testLogger())

	meta, err := chain.Resolve(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "from fallback", meta.Title)
}

func TestChainedResolver_SurfacesSecondFailure(t *testing.T) {
	primary := &stubResolver{err: types.NewError(types.ErrQuotaExceeded, "quota")}
	fallback := &stubResolver{err: types.NewError(types.ErrExtractionFailed, "blocked")}
	chain := NewChainedResolver(primary, fallback, testLogger())

	_, err := chain.Resolve(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, types.ErrExtractionFailed, types.KindOf(err),
		"the fallback's failure is the one surfaced")
}
