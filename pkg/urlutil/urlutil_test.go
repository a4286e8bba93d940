package urlutil

import (
	"testing"

	"ytgrab-go/pkg/types"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    string
		wantErr bool
	}{
		{
			name:   "watch page form",
			rawURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:   "dQw4w9WgXcQ",
		},
		{
			name:   "watch page with trailing params",
			rawURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123",
			want:   "dQw4w9WgXcQ",
		},
		{
			name:   "short link form",
			rawURL: "https://youtu.be/dQw4w9WgXcQ",
			want:   "dQw4w9WgXcQ",
		},
		{
			name:   "short link with query",
			rawURL: "https://youtu.be/dQw4w9WgXcQ?t=42",
			want:   "dQw4w9WgXcQ",
		},
		{
			name:    "no marker",
			rawURL:  "https://example.com/video/123",
			wantErr: true,
		},
		{
			name:    "marker with empty id",
			rawURL:  "https://www.youtube.com/watch?v=",
			wantErr: true,
		},
		{
			name:    "short link with empty id",
			rawURL:  "https://youtu.be/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.rawURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractVideoID(%q) = %q, want error", tt.rawURL, got)
				}
				if kind := types.KindOf(err); kind != types.ErrInvalidURL {
					t.Errorf("error kind = %q, want %q", kind, types.ErrInvalidURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) error: %v", tt.rawURL, err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestExtractVideoID_BothFormsNormalizeIdentically(t *testing.T) {
	watch, err := ExtractVideoID("https://www.youtube.com/watch?v=abc123XYZ_-&feature=shared")
	if err != nil {
		t.Fatal(err)
	}
	short, err := ExtractVideoID("https://youtu.be/abc123XYZ_-?si=tracker")
	if err != nil {
		t.Fatal(err)
	}
	if watch != short {
		t.Errorf("watch form %q != short form %q", watch, short)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain title", in: "My Video", want: "My Video"},
		{name: "path separators", in: "a/b\\c", want: "a_b_c"},
		{name: "quotes", in: `say "hi"`, want: "say 'hi'"},
		{name: "newlines", in: "line1\nline2", want: "line1 line2"},
		{name: "empty", in: "", want: "download"},
		{name: "whitespace only", in: "   ", want: "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
