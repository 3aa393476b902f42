package taskauth

import "time"

// TokenPair is what a successful register or login hands to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthenticatedSubject is produced only after the credential verified and
// the ledger reported it live. It is request-scoped.
type AuthenticatedSubject struct {
	SubjectID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
