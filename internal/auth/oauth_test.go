package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func testOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		Scopes:       []string{"https://www.googleapis.com/auth/drive.file"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

func TestAuthURLCarriesPKCEParameters(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", addr.Port)

	flow, err := NewOAuthFlow(testOAuthConfig(), listener, redirectURL)
	if err != nil {
		t.Fatalf("NewOAuthFlow failed: %v", err)
	}
	defer flow.Close()

	if flow.codeVerifier == "" {
		t.Error("Code verifier not generated")
	}
	if len(flow.codeVerifier) < 43 || len(flow.codeVerifier) > 128 {
		t.Errorf("Code verifier length %d outside valid range 43-128", len(flow.codeVerifier))
	}

	parsedURL, err := url.Parse(flow.GetAuthURL())
	if err != nil {
		t.Fatalf("Failed to parse auth URL: %v", err)
	}
	query := parsedURL.Query()

	if query.Get("code_challenge") != codeChallengeS256(flow.codeVerifier) {
		t.Errorf("code_challenge = %s, want S256 of verifier", query.Get("code_challenge"))
	}
	if query.Get("code_challenge_method") != "S256" {
		t.Errorf("code_challenge_method = %s, want S256", query.Get("code_challenge_method"))
	}
	if query.Get("state") != flow.state {
		t.Errorf("state = %s, want %s", query.Get("state"), flow.state)
	}
	if query.Get("access_type") != "offline" {
		t.Errorf("access_type = %s, want offline", query.Get("access_type"))
	}
}

func TestCodeVerifierGeneration(t *testing.T) {
	verifiers := make(map[string]bool)

	for i := 0; i < 100; i++ {
		verifier, err := generateCodeVerifier()
		if err != nil {
			t.Fatalf("Failed to generate verifier %d: %v", i, err)
		}
		if len(verifier) < 43 || len(verifier) > 128 {
			t.Errorf("Verifier %d length %d outside valid range", i, len(verifier))
		}
		if verifiers[verifier] {
			t.Errorf("Duplicate verifier generated: %s", verifier)
		}
		verifiers[verifier] = true
		if strings.ContainsAny(verifier, "+/=") {
			t.Errorf("Verifier %d contains invalid base64url characters: %s", i, verifier)
		}
	}
}

func TestCodeChallengeComputation(t *testing.T) {
	// RFC 7636 test vector
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	challenge := codeChallengeS256(verifier)
	if strings.ContainsAny(challenge, "+/=") {
		t.Errorf("Challenge contains invalid base64url characters: %s", challenge)
	}
	if len(challenge) != 43 {
		t.Errorf("Challenge length should be 43, got %d", len(challenge))
	}
	if challenge != codeChallengeS256(verifier) {
		t.Error("Code challenge computation is not deterministic")
	}
}

func TestLoopbackFlowPortSelection(t *testing.T) {
	flows := make([]*OAuthFlow, 5)
	for i := 0; i < 5; i++ {
		flow, err := newLoopbackFlow(testOAuthConfig())
		if err != nil {
			t.Fatalf("Failed to create flow %d: %v", i, err)
		}
		flows[i] = flow
		defer flow.Close()
	}

	ports := make(map[int]bool)
	for i, flow := range flows {
		if flow.listener == nil {
			t.Errorf("Flow %d has nil listener", i)
			continue
		}

		addr := flow.listener.Addr().(*net.TCPAddr)
		if addr.Port == 0 {
			t.Errorf("Flow %d has port 0", i)
		}
		if ports[addr.Port] {
			t.Errorf("Flow %d has duplicate port %d", i, addr.Port)
		}
		ports[addr.Port] = true

		expectedRedirect := fmt.Sprintf("http://127.0.0.1:%d/callback", addr.Port)
		if flow.redirectURL != expectedRedirect {
			t.Errorf("Flow %d redirect URL = %s, want %s", i, flow.redirectURL, expectedRedirect)
		}
		if !addr.IP.IsLoopback() {
			t.Errorf("Flow %d not bound to loopback: %s", i, addr.IP)
		}
	}
}

func TestCallbackStateValidation(t *testing.T) {
	flow, err := newLoopbackFlow(testOAuthConfig())
	if err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	defer flow.Close()

	tests := []struct {
		name          string
		state         string
		code          string
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid state",
			state:       flow.state,
			code:        "test-code",
			expectError: false,
		},
		{
			name:          "invalid state",
			state:         "wrong-state",
			code:          "test-code",
			expectError:   true,
			errorContains: "invalid state",
		},
		{
			name:          "missing code",
			state:         flow.state,
			code:          "",
			expectError:   true,
			errorContains: "auth error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow.codeChan = make(chan string, 1)
			flow.errChan = make(chan error, 1)

			reqURL := fmt.Sprintf("/callback?state=%s&code=%s",
				url.QueryEscape(tt.state),
				url.QueryEscape(tt.code))
			req := httptest.NewRequest("GET", reqURL, nil)
			w := httptest.NewRecorder()

			flow.handleCallback(w, req)

			select {
			case receivedCode := <-flow.codeChan:
				if tt.expectError {
					t.Errorf("Expected error but got code: %s", receivedCode)
				}
				if receivedCode != tt.code {
					t.Errorf("Code = %s, want %s", receivedCode, tt.code)
				}
			case err := <-flow.errChan:
				if !tt.expectError {
					t.Errorf("Unexpected error: %v", err)
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error should contain %q, got: %v", tt.errorContains, err)
				}
			case <-time.After(100 * time.Millisecond):
				if !tt.expectError {
					t.Error("Timeout waiting for result")
				}
			}
		})
	}
}

func TestWaitForCodeTimeout(t *testing.T) {
	flow, err := newLoopbackFlow(testOAuthConfig())
	if err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	defer flow.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	flow.StartCallbackServer(ctx)

	code, err := flow.WaitForCode(100 * time.Millisecond)
	if err == nil {
		t.Errorf("Expected timeout error, got code: %s", code)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout error, got: %v", err)
	}
}

func TestManualFlowHasNoListener(t *testing.T) {
	flow, err := newManualFlow(testOAuthConfig())
	if err != nil {
		t.Fatalf("Failed to create manual flow: %v", err)
	}

	if flow.listener != nil {
		t.Error("Manual flow should not have listener")
	}
	if flow.redirectURL == "" {
		t.Fatal("Manual flow missing redirect URL")
	}

	parsedURL, err := url.Parse(flow.redirectURL)
	if err != nil {
		t.Fatalf("Failed to parse redirect URL: %v", err)
	}
	if parsedURL.Hostname() != "127.0.0.1" {
		t.Errorf("Hostname = %s, want 127.0.0.1", parsedURL.Hostname())
	}
	if parsedURL.Path != "/callback" {
		t.Errorf("Path = %s, want /callback", parsedURL.Path)
	}
}

func TestIsHeadlessEnv(t *testing.T) {
	allVars := []string{"CI", "GITHUB_ACTIONS", "SSH_CONNECTION", "SSH_TTY", "DRIVE_BACKUP_NO_BROWSER"}

	tests := []struct {
		name     string
		envVars  map[string]string
		expected bool
	}{
		{
			name:     "desktop environment",
			envVars:  map[string]string{"DISPLAY": ":0"},
			expected: false,
		},
		{
			name:     "browser disabled explicitly",
			envVars:  map[string]string{"DRIVE_BACKUP_NO_BROWSER": "1", "DISPLAY": ":0"},
			expected: true,
		},
		{
			name:     "CI environment",
			envVars:  map[string]string{"CI": "true", "DISPLAY": ":0"},
			expected: true,
		},
		{
			name:     "GitHub Actions",
			envVars:  map[string]string{"GITHUB_ACTIONS": "true", "DISPLAY": ":0"},
			expected: true,
		},
		{
			name:     "SSH session",
			envVars:  map[string]string{"SSH_CONNECTION": "192.168.1.1 22 192.168.1.2 54321", "DISPLAY": ":0"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range allVars {
				if _, set := tt.envVars[k]; !set {
					os.Unsetenv(k)
				}
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			if got := isHeadlessEnv(); got != tt.expected {
				t.Errorf("isHeadlessEnv() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExchangeCodeSendsVerifier(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.FormValue("code_verifier") == "" {
			t.Error("Token exchange missing code_verifier parameter")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"access_token": "mock_access_token",
			"refresh_token": "mock_refresh_token",
			"expires_in": 3600,
			"token_type": "Bearer"
		}`)
	}))
	defer mockServer.Close()

	config := testOAuthConfig()
	config.Endpoint = oauth2.Endpoint{
		AuthURL:  mockServer.URL + "/auth",
		TokenURL: mockServer.URL + "/token",
	}

	flow, err := newLoopbackFlow(config)
	if err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	defer flow.Close()

	creds, err := flow.ExchangeCode(context.Background(), "mock_auth_code")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if creds.AccessToken != "mock_access_token" {
		t.Errorf("AccessToken = %s, want mock_access_token", creds.AccessToken)
	}
	if creds.RefreshToken != "mock_refresh_token" {
		t.Errorf("RefreshToken = %s, want mock_refresh_token", creds.RefreshToken)
	}
	if len(creds.Scopes) != 1 || creds.Scopes[0] != config.Scopes[0] {
		t.Errorf("Scopes = %v, want %v", creds.Scopes, config.Scopes)
	}
}
