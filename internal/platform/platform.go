// Package platform maps install targets to their directories and to the
// release asset naming used upstream
package platform

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	rerrors "github.com/Didstopia/ruffle-manager/internal/errors"
)

// Target is one of the two managed player installations
type Target string

const (
	// Standalone is the desktop player build
	Standalone Target = "standalone"
	// Web is the self-hosted, web-embeddable build
	Web Target = "web"
)

// Targets lists every managed target in check order
var Targets = []Target{Standalone, Web}

// Directories relative to the install root
const (
	StandaloneDir = "ruffle-standalone"
	WebDir        = "static/ruffle"
)

var webPattern = regexp.MustCompile(`selfhosted\.zip$`)

// standalonePatterns maps GOOS values to the standalone asset suffix
var standalonePatterns = map[string]*regexp.Regexp{
	"windows": regexp.MustCompile(`windows\.zip$`),
	"linux":   regexp.MustCompile(`linux\.tar\.gz$`),
	"darwin":  regexp.MustCompile(`osx\.tar\.gz$`),
}

// ParseTarget parses a target name
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case Standalone:
		return Standalone, nil
	case Web:
		return Web, nil
	default:
		return "", fmt.Errorf("%w: %q", rerrors.ErrInvalidTarget, s)
	}
}

// String implements fmt.Stringer
func (t Target) String() string {
	return string(t)
}

// Dir returns the target's installation directory under root
func (t Target) Dir(root string) string {
	switch t {
	case Web:
		return filepath.Join(root, filepath.FromSlash(WebDir))
	default:
		return filepath.Join(root, StandaloneDir)
	}
}

// Platform answers platform-dependent questions for a given operating system
type Platform struct {
	GOOS string
}

// Current returns the platform the process is running on
func Current() Platform {
	return Platform{GOOS: runtime.GOOS}
}

// Pattern returns the asset name pattern for a target. The standalone
// pattern depends on the operating system; unsupported systems fail with
// ErrUnsupportedPlatform before any network call is made.
func (p Platform) Pattern(t Target) (*regexp.Regexp, error) {
	switch t {
	case Web:
		return webPattern, nil
	case Standalone:
		pattern, ok := standalonePatterns[p.GOOS]
		if !ok {
			return nil, fmt.Errorf("%w: %s", rerrors.ErrUnsupportedPlatform, p.GOOS)
		}
		return pattern, nil
	default:
		return nil, fmt.Errorf("%w: %q", rerrors.ErrInvalidTarget, string(t))
	}
}
