package gdrive

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// DefaultTokenFile is the default filename for the cached OAuth token
const DefaultTokenFile = "gdrive-token.json"

// storedToken is the on-disk token representation
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// Authenticator handles OAuth2 authentication for Google Drive
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
}

// NewAuthenticator creates an authenticator. An empty tokenPath falls
// back to the user config directory.
func NewAuthenticator(clientID, clientSecret, tokenPath string) *Authenticator {
	if tokenPath == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			tokenPath = filepath.Join(configDir, "csync", DefaultTokenFile)
		} else {
			tokenPath = DefaultTokenFile
		}
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{drive.DriveFileScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: tokenPath,
	}
}

// Token returns a valid cached token, refreshing it when expired
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := a.loadToken()
	if err != nil {
		return nil, fmt.Errorf("no cached token, run 'csync auth gdrive' first")
	}

	if token.Valid() {
		return token, nil
	}

	if token.RefreshToken != "" {
		if refreshed, err := a.refresh(ctx, token); err == nil {
			return refreshed, nil
		}
	}

	return nil, fmt.Errorf("token expired and refresh failed, run 'csync auth gdrive' to re-authenticate")
}

// Authenticate runs the interactive authorization code flow and caches
// the resulting token
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	authURL := a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("\nTo authorize csync to access Google Drive:\n\n")
	fmt.Printf("1. Visit this URL:\n   %s\n\n", authURL)
	fmt.Printf("2. Sign in and authorize the application\n\n")
	fmt.Printf("Enter authorization code: ")

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code for token: %w", err)
	}

	if err := a.saveToken(token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	fmt.Println("\nAuthentication successful, token cached.")
	return token, nil
}

// refresh obtains a fresh token through the refresh token and caches it
func (a *Authenticator) refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	newToken, err := a.config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if err := a.saveToken(newToken); err != nil {
		return nil, fmt.Errorf("save refreshed token: %w", err)
	}
	return newToken, nil
}

// randomState generates a random state string for CSRF protection
func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// loadToken loads the cached token from disk
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}

	var t storedToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}, nil
}

// saveToken writes the token atomically with restricted permissions
func (a *Authenticator) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := a.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := os.Rename(tmp, a.tokenPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

// TokenPath returns where the token is cached
func (a *Authenticator) TokenPath() string {
	return a.tokenPath
}

// Config returns the OAuth2 config
func (a *Authenticator) Config() *oauth2.Config {
	return a.config
}
