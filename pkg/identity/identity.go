// Package identity supplies per-attempt outbound identities: API credentials
// drawn from a pool and randomized user-agent strings. Random selection is a
// deliberate anti-fingerprinting measure; repeated quota failures spread
// across the pool instead of hammering a fixed ordering.
package identity

import (
	"math/rand/v2"

	"ytgrab-go/pkg/types"
)

// CredentialPool holds interchangeable API credentials. Membership is fixed
// after construction, so concurrent Acquire calls need no locking. A
// credential that hit a quota error is not blacklisted; quota windows reset
// out of process.
type CredentialPool struct {
	creds []string
}

// NewCredentialPool creates a pool over the configured credentials.
func NewCredentialPool(creds []string) *CredentialPool {
	return &CredentialPool{creds: append([]string(nil), creds...)}
}

// Acquire returns one credential chosen uniformly at random.
func (p *CredentialPool) Acquire() (string, error) {
	if len(p.creds) == 0 {
		return "", types.NewError(types.ErrNoCredentials, "credential pool is empty")
	}
	return p.creds[rand.IntN(len(p.creds))], nil
}

// Size returns the number of configured credentials.
func (p *CredentialPool) Size() int {
	return len(p.creds)
}

// fallbackUserAgent is used when no identity list is configured.
const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Rotator supplies a randomized user-agent string per attempt.
type Rotator struct {
	agents []string
}

// NewRotator creates a rotator over the configured identity strings.
func NewRotator(agents []string) *Rotator {
	return &Rotator{agents: append([]string(nil), agents...)}
}

// Next returns one identity string chosen uniformly at random.
func (r *Rotator) Next() string {
	if len(r.agents) == 0 {
		return fallbackUserAgent
	}
	return r.agents[rand.IntN(len(r.agents))]
}
