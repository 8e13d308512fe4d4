// Package install downloads a release artifact into a target directory and
// unpacks it in place
package install

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
	"github.com/Didstopia/ruffle-manager/internal/release"
	"github.com/Didstopia/ruffle-manager/internal/report"
)

// EventKind identifies a progress event
type EventKind int

const (
	// EventDownload reports bytes received so far
	EventDownload EventKind = iota
	// EventExtract reports one extracted archive entry
	EventExtract
)

// Event is a progress notification from an install
type Event struct {
	Kind  EventKind
	Bytes int64
	Total int64
	Entry string
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(Event)

// Result describes a finished install
type Result struct {
	Dir     string
	Asset   string
	SHA256  string
	Bytes   int64
	Entries int
}

// Installer performs clean installs of release artifacts
type Installer struct {
	client    *http.Client
	userAgent string
	log       logrus.FieldLogger
}

// New creates an installer. A nil client uses a client without a timeout;
// downloads are bounded by the context only.
func New(client *http.Client, userAgent string, log logrus.FieldLogger) *Installer {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = report.DiscardLogger()
	}
	return &Installer{client: client, userAgent: userAgent, log: log}
}

// Install replaces the contents of dir with the unpacked artifact.
//
// The directory is removed and recreated, the archive is downloaded into it
// and unpacked, and the archive is deleted. A .tar.gz asset is unpacked in
// two passes: the gzip layer first, then the inner tar. Failures carry the
// stage they happened in; nothing is rolled back.
func (i *Installer) Install(ctx context.Context, dir string, artifact *release.Artifact, progress ProgressFunc) (*Result, error) {
	if artifact == nil {
		return nil, fmt.Errorf("no artifact to install")
	}
	if progress == nil {
		progress = func(Event) {}
	}

	log := i.log.WithFields(logrus.Fields{"dir": dir, "asset": artifact.Name})
	name := filepath.Base(artifact.Name)
	if name == "." || name == string(filepath.Separator) {
		return nil, rerrors.NewInstallError(rerrors.StageDownload, dir, fmt.Errorf("invalid asset name %q", artifact.Name))
	}

	log.Debug("Removing previous installation")
	if err := os.RemoveAll(dir); err != nil {
		return nil, rerrors.NewInstallError(rerrors.StageCleanup, dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, rerrors.NewInstallError(rerrors.StageCleanup, dir, err)
	}

	archivePath := filepath.Join(dir, name)
	log.WithField("url", artifact.URL).Debug("Downloading artifact")
	sum, n, err := i.download(ctx, artifact.URL, archivePath, artifact.Size, progress)
	if err != nil {
		return nil, rerrors.NewInstallError(rerrors.StageDownload, dir, err)
	}

	result := &Result{Dir: dir, Asset: artifact.Name, SHA256: sum, Bytes: n}

	inner, count, err := Unpack(ctx, dir, archivePath, progress)
	if err != nil {
		return nil, rerrors.NewInstallError(rerrors.StageUnpack, dir, err)
	}
	result.Entries += count
	if err := os.Remove(archivePath); err != nil {
		return nil, rerrors.NewInstallError(rerrors.StageUnpack, dir, err)
	}

	if strings.HasSuffix(name, ".tar.gz") && inner != "" {
		log.WithField("archive", filepath.Base(inner)).Debug("Unpacking inner archive")
		_, count, err := Unpack(ctx, dir, inner, progress)
		if err != nil {
			return nil, rerrors.NewInstallError(rerrors.StageUnpack, dir, err)
		}
		result.Entries += count
		if err := os.Remove(inner); err != nil {
			return nil, rerrors.NewInstallError(rerrors.StageUnpack, dir, err)
		}
	}

	log.WithField("entries", result.Entries).Debug("Install complete")
	return result, nil
}
