package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultAccount is used when no account is named.
const DefaultAccount = "default"

const (
	appDir          = "mailwright"
	tokenFilePrefix = "google-"
	tokenFileSuffix = ".token"
	legacyTokenFile = "google.token"

	// DefaultRedirectURL is a loopback address. After consent the browser
	// is redirected there and the code can be copied from the address bar.
	DefaultRedirectURL = "http://localhost"
)

var (
	// ErrNoClientCredentials is returned when GOOGLE_CLIENT_ID or
	// GOOGLE_CLIENT_SECRET are not set.
	ErrNoClientCredentials = errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")

	// ErrNoToken is returned when no token is stored for an account.
	ErrNoToken = errors.New("no Google OAuth token found")

	accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// ValidateAccountName checks that account can be used as a token file name.
func ValidateAccountName(account string) error {
	return validateAccountName(account)
}

func tokenDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "cache")
	}
	return filepath.Join(dir, appDir)
}

func getTokenFilePath(account string) string {
	return filepath.Join(tokenDir(), tokenFilePrefix+account+tokenFileSuffix)
}

// getOAuthConfig returns the OAuth2 configuration read from the environment.
func getOAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, ErrNoClientCredentials
	}
	redirect := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// GetAuthURL returns the consent URL for account. The account name is
// carried in the state parameter.
func GetAuthURL(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	conf, err := getOAuthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SaveTokenForAccount exchanges an authorization code and stores the
// resulting token for account.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if strings.TrimSpace(authCode) == "" {
		return fmt.Errorf("authorization code must not be empty")
	}
	conf, err := getOAuthConfig()
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, strings.TrimSpace(authCode))
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return writeToken(account, t)
}

func writeToken(account string, t *oauth2.Token) error {
	if err := os.MkdirAll(tokenDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(getTokenFilePath(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func readToken(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(getTokenFilePath(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		// Tokens written by older versions are "access refresh".
		f := strings.Fields(strings.TrimSpace(string(data)))
		if len(f) != 2 {
			return nil, fmt.Errorf("invalid token format for account %s", account)
		}
		t = oauth2.Token{AccessToken: f[0], RefreshToken: f[1], TokenType: "Bearer"}
	}
	return &t, nil
}

// HasTokenForAccount reports whether a token file exists for account.
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// HasToken reports whether the default account has a token.
func HasToken() bool {
	return HasTokenForAccount(DefaultAccount)
}

// ListAccounts returns the names of all accounts with a stored token.
func ListAccounts() ([]string, error) {
	entries, err := os.ReadDir(tokenDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list token directory: %w", err)
	}

	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, tokenFilePrefix) || !strings.HasSuffix(name, tokenFileSuffix) {
			continue
		}
		account := strings.TrimSuffix(strings.TrimPrefix(name, tokenFilePrefix), tokenFileSuffix)
		if validateAccountName(account) == nil {
			accounts = append(accounts, account)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}

// MigrateDefaultToken renames a token stored under the legacy single-account
// file name to the default account's file. It is a no-op when there is
// nothing to migrate or the default account already has a token.
func MigrateDefaultToken() error {
	oldPath := filepath.Join(tokenDir(), legacyTokenFile)
	if _, err := os.Stat(oldPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	newPath := getTokenFilePath(DefaultAccount)
	if _, err := os.Stat(newPath); err == nil {
		return nil
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to migrate token: %w", err)
	}
	return nil
}

// GetAuthenticationErrorMessage explains how to authorize account.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token missing for account %q. "+
		"Call google_get_auth_url with account=%q, open the URL, "+
		"then pass the code to google_save_auth_code (or run `mailwright auth url --account %s`).",
		account, account, account)
}
