package formats

import (
	"testing"

	"ytgrab-go/pkg/types"
)

func candidates() []types.CandidateFormat {
	return []types.CandidateFormat{
		{ID: "140", MimeType: "audio/mp4", Bitrate: 500},
		{ID: "22", MimeType: "video/mp4", Bitrate: 1200},
		{ID: "18", MimeType: "video/mp4", Bitrate: 900},
	}
}

func TestBest_HighestBitrateOfMatchingKind(t *testing.T) {
	all := []types.CandidateFormat{
		{ID: "a", MimeType: "video/mp4", Bitrate: 500},
		{ID: "b", MimeType: "video/webm", Bitrate: 1200},
		{ID: "c", MimeType: "video/mp4", Bitrate: 900},
	}
	got, err := Best(all, types.KindVideo)
	if err != nil {
		t.Fatalf("Best() error: %v", err)
	}
	if got.ID != "b" || got.Bitrate != 1200 {
		t.Errorf("Best() = %+v, want the 1200-bitrate candidate", got)
	}
}

func TestBest_KindFilterAppliedBeforeMax(t *testing.T) {
	got, err := Best(candidates(), types.KindAudio)
	if err != nil {
		t.Fatalf("Best() error: %v", err)
	}
	if got.ID != "140" {
		t.Errorf("Best(audio) = %s, want the only audio candidate 140", got.ID)
	}
}

func TestBest_FallsBackToGlobalMaxWhenKindUnmatched(t *testing.T) {
	videoOnly := []types.CandidateFormat{
		{ID: "22", MimeType: "video/mp4", Bitrate: 1200},
		{ID: "18", MimeType: "video/mp4", Bitrate: 900},
	}
	got, err := Best(videoOnly, types.KindAudio)
	if err != nil {
		t.Fatalf("Best() error: %v", err)
	}
	if got.ID != "22" {
		t.Errorf("Best() fallback = %s, want global max 22", got.ID)
	}
}

func TestBest_TieKeepsFirstSeen(t *testing.T) {
	tied := []types.CandidateFormat{
		{ID: "first", MimeType: "audio/mp4", Bitrate: 128},
		{ID: "second", MimeType: "audio/webm", Bitrate: 128},
	}
	for i := 0; i < 10; i++ {
		got, err := Best(tied, types.KindAudio)
		if err != nil {
			t.Fatalf("Best() error: %v", err)
		}
		if got.ID != "first" {
			t.Fatalf("tie-break not first-seen: got %s", got.ID)
		}
	}
}

func TestBest_EmptySet(t *testing.T) {
	_, err := Best(nil, types.KindVideo)
	if err == nil {
		t.Fatal("expected error for empty candidate set")
	}
	if kind := types.KindOf(err); kind != types.ErrNoFormats {
		t.Errorf("error kind = %q, want %q", kind, types.ErrNoFormats)
	}
}

func TestByID(t *testing.T) {
	got, err := ByID(candidates(), "18")
	if err != nil {
		t.Fatalf("ByID() error: %v", err)
	}
	if got.Bitrate != 900 {
		t.Errorf("ByID(18).Bitrate = %d, want 900", got.Bitrate)
	}

	if _, err := ByID(candidates(), "999"); types.KindOf(err) != types.ErrNotFound {
		t.Errorf("ByID(unknown) kind = %q, want %q", types.KindOf(err), types.ErrNotFound)
	}
}
