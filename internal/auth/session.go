package auth

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Session is an authenticated Drive API session
type Session struct {
	Credentials *types.Credentials
	Service     *drive.Service
}

// ObtainSession walks the full credential lifecycle and returns an
// authenticated session. Stored credentials are preferred, a silent
// refresh is attempted next, and the interactive flow is the last
// resort. Only a failed interactive flow is fatal.
func (m *Manager) ObtainSession(ctx context.Context, openBrowser func(string) error, opts OAuthAuthOptions) (*Session, error) {
	if openBrowser == nil {
		openBrowser = OpenBrowser
	}

	creds := m.GetValidCredentials(ctx)
	if creds == nil {
		m.logger.Info("No valid credentials, starting interactive authentication")
		var err error
		creds, err = m.Authenticate(ctx, openBrowser, opts)
		if err != nil {
			return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
				fmt.Sprintf("Interactive authentication failed: %s", err)).
				WithContext("suggestedAction", "run 'drive-backup auth login' and approve access").
				Build())
		}
		m.logger.Info("Interactive authentication succeeded, credentials saved",
			logging.F("store", m.storage.Name()))
	}

	client := m.GetHTTPClient(ctx, creds)
	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("Failed to create Drive service: %s", err)).
			Build())
	}

	return &Session{
		Credentials: creds,
		Service:     service,
	}, nil
}

// OpenBrowser opens a URL in the platform default browser
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
