package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
)

const (
	// DefaultBaseURL is the public GitHub API root
	DefaultBaseURL = "https://api.github.com/"

	// DefaultUserAgent identifies us to the API and to download hosts
	DefaultUserAgent = "ruffle-manager (Flashpoint Launcher/Ruffle Extension)"
)

// client implements the Client interface
type client struct {
	ghClient *gh.Client
	perPage  int
}

// NewClient creates a new feed client from the provided options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = opts.Timeout
	}

	ghClient := gh.NewClient(httpClient)

	if opts.BaseURL != "" && opts.BaseURL != DefaultBaseURL {
		baseURL := opts.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid feed base URL %q: %w", opts.BaseURL, err)
		}
		ghClient.BaseURL = parsed
	}

	if opts.UserAgent != "" {
		ghClient.UserAgent = opts.UserAgent
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultOptions().PerPage
	}

	return &client{ghClient: ghClient, perPage: perPage}, nil
}

// ListReleases returns the first page of releases. Only the newest entry is
// ever consulted, so there is no pagination.
func (c *client) ListReleases(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error) {
	releases, resp, err := c.ghClient.Repositories.ListReleases(ctx, owner, repo, &gh.ListOptions{
		Page:    1,
		PerPage: c.perPage,
	})
	if err != nil {
		return nil, wrapAPIError(resp, err)
	}
	return releases, nil
}

// ListReleaseAssets returns the assets of a release in listed order
func (c *client) ListReleaseAssets(ctx context.Context, owner, repo string, releaseID int64) ([]*gh.ReleaseAsset, error) {
	var allAssets []*gh.ReleaseAsset

	opts := &gh.ListOptions{
		Page:    1,
		PerPage: 100,
	}

	for {
		assets, resp, err := c.ghClient.Repositories.ListReleaseAssets(ctx, owner, repo, releaseID, opts)
		if err != nil {
			return nil, wrapAPIError(resp, err)
		}

		allAssets = append(allAssets, assets...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allAssets, nil
}

// wrapAPIError converts a GitHub API response error to our error type.
// Anything that prevented a successful response is ErrFeedUnreachable; a
// successful response whose body could not be decoded is ErrFeedMalformed.
// GitHub API error messages are preserved for diagnostics.
func wrapAPIError(resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%w: %w: %s", rerrors.ErrFeedUnreachable, rerrors.ErrRateLimited, rateLimitErr.Message)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %w: %s", rerrors.ErrFeedUnreachable, rerrors.ErrRateLimited, abuseErr.Message)
	}

	statusCode := 0
	if resp != nil && resp.Response != nil {
		statusCode = resp.StatusCode
	}

	// The request succeeded but the body did not decode into the expected shape
	if statusCode >= 200 && statusCode < 300 {
		return fmt.Errorf("%w: %v", rerrors.ErrFeedMalformed, err)
	}

	apiMessage := ""
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		apiMessage = ghErr.Message
	}

	switch statusCode {
	case 401:
		return fmt.Errorf("%w: %w: %s", rerrors.ErrFeedUnreachable, rerrors.ErrUnauthorized, apiMessage)
	case 404:
		return fmt.Errorf("%w: %w: %s", rerrors.ErrFeedUnreachable, rerrors.ErrNotFound, apiMessage)
	case 429:
		return fmt.Errorf("%w: %w: %s", rerrors.ErrFeedUnreachable, rerrors.ErrRateLimited, apiMessage)
	default:
		msg := "API request failed"
		if apiMessage != "" {
			msg = apiMessage
		}
		return fmt.Errorf("%w: %w", rerrors.ErrFeedUnreachable, rerrors.NewAPIError(statusCode, msg, err))
	}
}
