package google

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider resolves the OAuth token source used to authorize the Gmail
// API for an account.
type TokenProvider interface {
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)
	HasTokenForAccount(account string) bool
}

// FileTokenProvider serves the per-account token files. Tokens refreshed
// through it are written back to the account's file.
type FileTokenProvider struct{}

func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

func (p *FileTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	t, err := readToken(account)
	if err != nil {
		return nil, err
	}
	conf, err := getOAuthConfig()
	if err != nil {
		return nil, err
	}
	return newSavingTokenSource(account, t, conf.TokenSource(ctx, t)), nil
}

func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// savingTokenSource writes a token back to disk whenever the underlying
// source hands out a new access token.
type savingTokenSource struct {
	account string
	src     oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func newSavingTokenSource(account string, current *oauth2.Token, src oauth2.TokenSource) *savingTokenSource {
	return &savingTokenSource{
		account: account,
		src:     oauth2.ReuseTokenSource(current, src),
		last:    current.AccessToken,
	}
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.AccessToken != s.last {
		s.last = t.AccessToken
		// The refreshed token stays usable even if it cannot be stored.
		_ = writeToken(s.account, t)
	}
	return t, nil
}

// NewHTTPClient returns an HTTP client that authorizes requests with ts.
// HTTP/2 is disabled to avoid stream errors seen with the Gmail API.
func NewHTTPClient(ts oauth2.TokenSource) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}
}
