// Package terminal detects whether the process can talk to a user
package terminal

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ciEnvVars are set by common CI systems
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILDKITE",
	"DRONE",
	"TEAMCITY_VERSION",
	"TF_BUILD",           // Azure Pipelines
	"CODEBUILD_BUILD_ID", // AWS CodeBuild
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive returns true if both stdin and stdout are terminals and the
// process is not running under CI
func IsInteractive() bool {
	if !IsTerminal(os.Stdin) || !IsTerminal(os.Stdout) {
		return false
	}
	return !IsCI(os.Getenv)
}

// IsCI reports whether any known CI variable is set
func IsCI(getenv func(string) string) bool {
	for _, envVar := range ciEnvVars {
		if getenv(envVar) != "" {
			return true
		}
	}
	return false
}
