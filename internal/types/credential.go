package types

import "time"

// Credential is an opaque bearer token granting quota on the platform's
// search API. Mutated exclusively by the Governor.
type Credential struct {
	Secret     string
	Remaining  int
	Limit      int
	ResetEpoch int64
	Valid      bool
	RetryAfter time.Time // zero value means no pending penalty
	Resource   string
}

// NewCredential constructs a credential in its initial, unprobed state:
// an optimistic remaining of 30 (the standard search quota) and an unknown
// limit (0) until the first /rate_limit or search response updates them.
func NewCredential(secret string) *Credential {
	return &Credential{
		Secret:    secret,
		Remaining: 30,
		Limit:     0,
		Valid:     true,
		Resource:  "search",
	}
}

// Masked returns the credential's secret with all but a short prefix/suffix
// redacted, safe to include in log output.
func (c *Credential) Masked() string {
	return MaskToken(c.Secret)
}

// MaskToken redacts a bearer token for logging, keeping enough of the prefix
// to distinguish token kinds and a short suffix for operator correlation.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:7] + "…" + token[len(token)-4:]
}

// HasPenalty reports whether this credential is currently serving a
// Retry-After penalty.
func (c *Credential) HasPenalty(now time.Time) bool {
	return !c.RetryAfter.IsZero() && now.Before(c.RetryAfter)
}

// Usable reports whether the credential can be selected right now without
// violating the threshold or an active penalty.
func (c *Credential) Usable(threshold int, now time.Time) bool {
	if !c.Valid {
		return false
	}
	if c.HasPenalty(now) {
		return false
	}
	return c.Remaining > threshold
}
