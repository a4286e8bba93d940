// Package formats selects the best candidate format under explicit
// tie-break rules.
package formats

import (
	"strings"

	"ytgrab-go/pkg/types"
)

// Best returns the highest-bitrate candidate whose MIME type matches the
// requested kind. When no candidate matches the kind it falls back to the
// highest-bitrate candidate overall, because a usable stream beats none.
// Ties keep the first-seen candidate. An empty candidate set is ErrNoFormats.
func Best(candidates []types.CandidateFormat, kind types.MediaKind) (types.CandidateFormat, error) {
	if len(candidates) == 0 {
		return types.CandidateFormat{}, types.NewError(types.ErrNoFormats, "no candidate formats")
	}

	prefix := kind.MIMEPrefix()
	matching := make([]types.CandidateFormat, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c.MimeType, prefix) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		matching = candidates
	}

	best := matching[0]
	for _, c := range matching[1:] {
		if c.Bitrate > best.Bitrate {
			best = c
		}
	}
	return best, nil
}

// ByID returns the candidate with the given format ID, or ErrNotFound.
func ByID(candidates []types.CandidateFormat, id string) (types.CandidateFormat, error) {
	for _, c := range candidates {
		if c.ID == id {
			return c, nil
		}
	}
	return types.CandidateFormat{}, types.NewError(types.ErrNotFound, "format %s not offered", id)
}
