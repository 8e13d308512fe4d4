// Package github provides interfaces and implementation for reading the
// upstream release feed
package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// Client defines the interface for the release feed operations we need
type Client interface {
	// ListReleases returns the first page of releases, newest first as
	// ordered by the API
	ListReleases(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error)

	// ListReleaseAssets returns the assets attached to a release in listed order
	ListReleaseAssets(ctx context.Context, owner, repo string, releaseID int64) ([]*gh.ReleaseAsset, error)
}

// Options configures a Client
type Options struct {
	// Token is an optional API token, used to lift the anonymous rate limit
	Token string

	// BaseURL is the API root (default https://api.github.com/)
	BaseURL string

	// UserAgent is sent with every request
	UserAgent string

	// Timeout bounds each request; zero leaves the transport's behaviour alone
	Timeout time.Duration

	// PerPage is the page size used when listing releases
	PerPage int
}

// DefaultOptions returns default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		PerPage:   10,
	}
}
