package domain

import "time"

// TokenPair bundles the credentials handed out at login. The refresh token
// outlives the access token and is only good for minting replacements.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
