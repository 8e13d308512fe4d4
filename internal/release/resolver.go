// Package release resolves the newest downloadable player artifact from the
// upstream release feed
package release

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
	"github.com/Didstopia/ruffle-manager/internal/github"
	"github.com/Didstopia/ruffle-manager/internal/report"
)

// Artifact is a single downloadable file attached to the latest release
type Artifact struct {
	Name        string
	URL         string
	Size        int64
	PublishedAt time.Time
	ReleaseID   int64
	ReleaseName string
}

// Resolver finds matching artifacts in a release feed
type Resolver struct {
	client github.Client
	feed   github.Feed
	log    logrus.FieldLogger
}

// NewResolver creates a resolver for the given feed
func NewResolver(client github.Client, feed github.Feed, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = report.DiscardLogger()
	}
	return &Resolver{client: client, feed: feed, log: log}
}

// Feed returns the feed the resolver reads from
func (r *Resolver) Feed() github.Feed {
	return r.feed
}

// Resolve returns the first asset of the latest release whose name matches
// pattern. The first entry of the feed is taken as the latest release; the
// feed is not re-sorted by publish time. A missing asset is reported with
// found == false and a nil error.
func (r *Resolver) Resolve(ctx context.Context, pattern *regexp.Regexp) (*Artifact, bool, error) {
	r.log.WithField("feed", r.feed.String()).Debug("Fetching releases")

	releases, err := r.client.ListReleases(ctx, r.feed.Owner, r.feed.Repo)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch releases: %w", err)
	}
	if len(releases) == 0 {
		return nil, false, fmt.Errorf("%w: repository has no releases", rerrors.ErrFeedMalformed)
	}

	latest := releases[0]
	if latest == nil || latest.PublishedAt == nil {
		return nil, false, fmt.Errorf("%w: latest release has no publish date", rerrors.ErrFeedMalformed)
	}

	r.log.WithFields(logrus.Fields{
		"id":        latest.GetID(),
		"name":      latest.GetName(),
		"published": latest.GetPublishedAt().Format(time.RFC3339),
	}).Debug("Found release")

	assets, err := r.client.ListReleaseAssets(ctx, r.feed.Owner, r.feed.Repo, latest.GetID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch assets of release %d: %w", latest.GetID(), err)
	}

	for _, asset := range assets {
		if asset == nil || !pattern.MatchString(asset.GetName()) {
			continue
		}

		artifact := &Artifact{
			Name:        asset.GetName(),
			URL:         asset.GetBrowserDownloadURL(),
			Size:        int64(asset.GetSize()),
			PublishedAt: latest.GetPublishedAt().Time,
			ReleaseID:   latest.GetID(),
			ReleaseName: latest.GetName(),
		}

		r.log.WithFields(logrus.Fields{
			"asset": artifact.Name,
			"url":   artifact.URL,
		}).Debug("Found asset")

		return artifact, true, nil
	}

	r.log.WithField("pattern", pattern.String()).Debug("No matching asset in latest release")
	return nil, false, nil
}

// ResolveRequired is Resolve with absence turned into ErrAssetNotFound
func (r *Resolver) ResolveRequired(ctx context.Context, pattern *regexp.Regexp) (*Artifact, error) {
	artifact, found, err := r.Resolve(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w (pattern %s)", rerrors.ErrAssetNotFound, pattern.String())
	}
	return artifact, nil
}
