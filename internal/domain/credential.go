package domain

import "time"

// Credential is the backend session credential read by every outgoing call.
// It is owned exclusively by the credential refresh coordinator and only ever
// replaced as a whole value, never field by field.
type Credential struct {
	Principal    string    `json:"principal" db:"principal"`
	AccessToken  string    `json:"access_token" db:"access_token"`
	RefreshToken string    `json:"refresh_token" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
}

// ValidFor reports whether the credential is still usable at now plus the
// safety margin. Expiry is never compared against bare "now": a token that
// expires mid-request is as bad as an expired one.
func (c Credential) ValidFor(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.After(now.Add(margin))
}
