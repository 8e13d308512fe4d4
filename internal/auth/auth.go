// Package auth resolves and stores the optional GitHub token used to read
// the release feed
package auth

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultHostname is the default GitHub hostname
	DefaultHostname = "github.com"

	// EnvGitHubToken is the environment variable for GitHub token
	EnvGitHubToken = "GITHUB_TOKEN"
)

// TokenSource represents where the token was obtained from
type TokenSource string

const (
	TokenSourceFlag     TokenSource = "flag"
	TokenSourceEnv      TokenSource = "environment"
	TokenSourceKeychain TokenSource = "keychain"
	TokenSourceConfig   TokenSource = "config"
	TokenSourceNone     TokenSource = "none"
)

// TokenResult contains the resolved token and its source
type TokenResult struct {
	Token    string
	Source   TokenSource
	Hostname string
}

// AuthenticatedUser is the account a token belongs to
type AuthenticatedUser struct {
	Login string
	Name  string
}

// HostnameFromBaseURL returns the keychain hostname for an API base URL.
// api.github.com maps to github.com.
func HostnameFromBaseURL(baseURL string) string {
	if baseURL == "" {
		return DefaultHostname
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return DefaultHostname
	}
	host := u.Hostname()
	if host == "api.github.com" {
		return DefaultHostname
	}
	return strings.TrimPrefix(host, "api.")
}

// GetToken resolves the GitHub token using the following priority:
// 1. Explicit token (from --token flag)
// 2. GITHUB_TOKEN environment variable
// 3. Stored token (keychain or config file)
//
// A missing token is not an error; the feed is public.
func GetToken(ctx context.Context, explicitToken string, hostname string) (*TokenResult, error) {
	return NewStorage().Resolve(explicitToken, hostname), nil
}

// Resolve applies the GetToken priority using s as the stored token source
func (s *Storage) Resolve(explicitToken, hostname string) *TokenResult {
	if hostname == "" {
		hostname = DefaultHostname
	}

	if explicitToken != "" {
		return &TokenResult{Token: explicitToken, Source: TokenSourceFlag, Hostname: hostname}
	}

	if envToken := os.Getenv(EnvGitHubToken); envToken != "" {
		return &TokenResult{Token: envToken, Source: TokenSourceEnv, Hostname: hostname}
	}

	if stored, source, err := s.GetToken(hostname); err == nil && stored != "" {
		return &TokenResult{Token: stored, Source: source, Hostname: hostname}
	}

	return &TokenResult{Token: "", Source: TokenSourceNone, Hostname: hostname}
}

// ValidateToken checks a token by fetching the authenticated user from the
// API at baseURL
func ValidateToken(ctx context.Context, token string, baseURL string) (*AuthenticatedUser, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	return &AuthenticatedUser{
		Login: user.GetLogin(),
		Name:  user.GetName(),
	}, nil
}

// FormatTokenSource returns a human-readable description of the token source
func FormatTokenSource(source TokenSource) string {
	switch source {
	case TokenSourceFlag:
		return "command line flag"
	case TokenSourceEnv:
		return "environment variable (GITHUB_TOKEN)"
	case TokenSourceKeychain:
		return "keychain"
	case TokenSourceConfig:
		return "config file (~/.ruffle-manager.yaml)"
	case TokenSourceNone:
		return "none (anonymous, 60 requests per hour)"
	default:
		return "unknown"
	}
}

// MaskToken returns a masked version of the token for display
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
