package types

import "time"

// AuthType identifies how credentials were obtained
type AuthType string

const (
	AuthTypeOAuth AuthType = "oauth"
)

// Credentials holds an OAuth2 credential in memory
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiryDate   time.Time
	Scopes       []string
	Type         AuthType
}

// StoredCredentials is the on-disk (or keyring) serialization of Credentials
type StoredCredentials struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiryDate   string   `json:"expiry"`
	Scopes       []string `json:"scopes"`
	Type         AuthType `json:"type"`
}
