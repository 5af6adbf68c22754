// Package version holds the server version.
package version

import "fmt"

var (
	// Version is the semver of the current build.
	Version = "0.3.1"
	// DevVersion is the version suffix used in dev mode.
	DevVersion = "0.3.1"
)

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return fmt.Sprintf("%s-%s", DevVersion, mode)
	}
	return Version
}
