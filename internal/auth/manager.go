package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const tokenRefreshBuffer = 5 * time.Minute

// Manager handles the credential lifecycle: token store reads, silent
// refresh, and the interactive fallback. Session scope is fixed to
// drive.file; the agent never requests full-drive access.
type Manager struct {
	storage     StorageBackend
	oauthConfig *oauth2.Config
	logger      logging.Logger
}

// NewManager creates a new auth manager
func NewManager(storage StorageBackend, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Manager{
		storage: storage,
		logger:  logger,
	}
}

// SetOAuthConfig sets the OAuth2 configuration directly
func (m *Manager) SetOAuthConfig(clientID, clientSecret string, scopes []string) {
	m.oauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// GetOAuthConfig returns the current OAuth2 configuration
func (m *Manager) GetOAuthConfig() *oauth2.Config {
	return m.oauthConfig
}

// LoadClientSecretFile reads a Google OAuth client registration file
// (the credentials.json downloaded from the API console) and configures
// the manager from it.
func (m *Manager) LoadClientSecretFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("Cannot read client secret file: %s", err)).
			WithContext("path", path).
			Build())
	}

	config, err := google.ConfigFromJSON(data, utils.ScopeFile)
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("Invalid client secret file: %s", err)).
			WithContext("path", path).
			Build())
	}

	m.oauthConfig = config
	return nil
}

// LoadCredentials loads the stored credential
func (m *Manager) LoadCredentials() (*types.Credentials, error) {
	data, err := m.storage.Load()
	if err != nil {
		return nil, err
	}

	var stored types.StoredCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	expiryDate, err := time.Parse(time.RFC3339, stored.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date: %w", err)
	}

	return &types.Credentials{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiryDate:   expiryDate,
		Scopes:       stored.Scopes,
		Type:         stored.Type,
	}, nil
}

// SaveCredentials persists the credential to the token store
func (m *Manager) SaveCredentials(creds *types.Credentials) error {
	stored := types.StoredCredentials{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiryDate:   creds.ExpiryDate.Format(time.RFC3339),
		Scopes:       creds.Scopes,
		Type:         creds.Type,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	return m.storage.Save(data)
}

// DeleteCredentials removes the stored credential
func (m *Manager) DeleteCredentials() error {
	return m.storage.Delete()
}

// NeedsRefresh checks if the credential needs refreshing
func (m *Manager) NeedsRefresh(creds *types.Credentials) bool {
	return time.Now().Add(tokenRefreshBuffer).After(creds.ExpiryDate)
}

// RefreshCredentials performs a silent refresh using the refresh token
func (m *Manager) RefreshCredentials(ctx context.Context, creds *types.Credentials) (*types.Credentials, error) {
	if m.oauthConfig == nil {
		return nil, fmt.Errorf("OAuth config not set")
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiryDate,
	}

	tokenSource := m.oauthConfig.TokenSource(ctx, token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	refreshToken := newToken.RefreshToken
	if refreshToken == "" {
		refreshToken = creds.RefreshToken
	}

	return &types.Credentials{
		AccessToken:  newToken.AccessToken,
		RefreshToken: refreshToken,
		ExpiryDate:   newToken.Expiry,
		Scopes:       creds.Scopes,
		Type:         types.AuthTypeOAuth,
	}, nil
}

// CredentialState classifies a loaded credential for the lifecycle decision
type CredentialState int

const (
	// CredentialAbsent means no usable credential exists
	CredentialAbsent CredentialState = iota
	// CredentialValid means the credential can be used as-is
	CredentialValid
	// CredentialRefreshable means the credential is expired but holds a
	// refresh token
	CredentialRefreshable
)

// ClassifyCredentials determines which lifecycle step applies
func (m *Manager) ClassifyCredentials(creds *types.Credentials) CredentialState {
	if creds == nil || creds.AccessToken == "" {
		return CredentialAbsent
	}
	if !m.NeedsRefresh(creds) {
		return CredentialValid
	}
	if creds.RefreshToken != "" {
		return CredentialRefreshable
	}
	return CredentialAbsent
}

// GetValidCredentials walks the credential lifecycle short of the
// interactive flow: load, use if valid, refresh if possible. Any token
// store or refresh failure is logged and reported as absent, never
// propagated — a redundant interactive auth beats a dead run.
func (m *Manager) GetValidCredentials(ctx context.Context) *types.Credentials {
	creds, err := m.LoadCredentials()
	if err != nil {
		m.logger.Warn("No stored credentials", logging.F("reason", err.Error()))
		return nil
	}
	m.logger.Info("Loaded existing credentials from token store",
		logging.F("store", m.storage.Name()))

	switch m.ClassifyCredentials(creds) {
	case CredentialValid:
		return creds
	case CredentialRefreshable:
		m.logger.Info("Refreshing expired credentials")
		newCreds, err := m.RefreshCredentials(ctx, creds)
		if err != nil {
			m.logger.Error("Credential refresh failed", logging.F("error", err.Error()))
			return nil
		}
		if err := m.SaveCredentials(newCreds); err != nil {
			m.logger.Error("Failed to persist refreshed credentials",
				logging.F("error", err.Error()))
		} else {
			m.logger.Info("Refreshed and saved new credentials")
		}
		return newCreds
	default:
		return nil
	}
}

// GetHTTPClient returns an authenticated HTTP client for the credential
func (m *Manager) GetHTTPClient(ctx context.Context, creds *types.Credentials) *http.Client {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiryDate,
	}
	if m.oauthConfig == nil {
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}
	return m.oauthConfig.Client(ctx, token)
}

// StorageName returns the name of the storage backend in use
func (m *Manager) StorageName() string {
	return m.storage.Name()
}
