package cli

import (
	"fmt"

	"github.com/javanstorm/guestshell/internal/version"
)

// versionTemplate is printed by --version. Inside the shell, the version
// command prints the one-line form.
func versionTemplate() string {
	return fmt.Sprintf("guestshell %s\n  Commit:     %s\n  Build Date: %s\n",
		version.Version, version.Commit, version.BuildDate)
}
