package github

import (
	"net/url"
	"strings"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
)

// DefaultFeed is the upstream Ruffle release feed
const DefaultFeed = "https://api.github.com/repos/ruffle-rs/ruffle/releases"

// Feed identifies a releases collection on a GitHub-compatible API
type Feed struct {
	BaseURL string
	Owner   string
	Repo    string
}

// String returns the releases collection URL for the feed
func (f Feed) String() string {
	return strings.TrimSuffix(f.BaseURL, "/") + "/repos/" + f.Owner + "/" + f.Repo + "/releases"
}

// ParseFeed parses either a releases collection URL
// (https://api.github.com/repos/owner/repo/releases) or the short owner/repo
// form, which implies the public API.
func ParseFeed(feed string) (Feed, error) {
	feed = strings.TrimSpace(feed)
	if feed == "" {
		return Feed{}, rerrors.NewValidationError("feed", "feed cannot be empty")
	}

	if !strings.Contains(feed, "://") {
		owner, repo, err := ValidateRepository(feed)
		if err != nil {
			return Feed{}, err
		}
		return Feed{BaseURL: DefaultBaseURL, Owner: owner, Repo: repo}, nil
	}

	u, err := url.Parse(feed)
	if err != nil || u.Host == "" {
		return Feed{}, rerrors.NewValidationError("feed", "invalid feed URL: "+feed)
	}

	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/repos/")
	if idx == -1 || !strings.HasSuffix(path, "/releases") {
		return Feed{}, rerrors.NewValidationError("feed",
			"expected a releases collection URL (.../repos/owner/repo/releases), got: "+feed)
	}

	ownerRepo := strings.TrimSuffix(path[idx+len("/repos/"):], "/releases")
	owner, repo, err := ValidateRepository(ownerRepo)
	if err != nil {
		return Feed{}, err
	}

	base := *u
	base.Path = path[:idx] + "/"
	base.RawQuery = ""
	base.Fragment = ""

	return Feed{BaseURL: base.String(), Owner: owner, Repo: repo}, nil
}

// ValidateRepository validates and parses an owner/repo string
func ValidateRepository(repository string) (string, string, error) {
	if len(repository) < 3 || strings.Count(repository, "/") != 1 {
		return "", "", rerrors.NewValidationError("repository",
			"invalid format (expected owner/repo, got: "+repository+")")
	}

	parts := strings.SplitN(repository, "/", 2)
	owner, repo := parts[0], parts[1]

	if owner == "" || repo == "" {
		return "", "", rerrors.NewValidationError("repository",
			"owner and repo name cannot be empty")
	}

	if strings.ContainsAny(owner+repo, "@#$%^&*() ") {
		return "", "", rerrors.NewValidationError("repository",
			"repository contains invalid characters")
	}

	return owner, repo, nil
}
