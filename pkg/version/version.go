package version

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build time via -ldflags.
var (
	BinaryName = "apimon"
	Version    = "dev"
	GitCommit  = "unknown"
	BuildTime  = "unknown"
	GoVersion  = runtime.Version()
	Platform   = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// GetVersionInfo returns a human-readable version summary.
func GetVersionInfo() string {
	return fmt.Sprintf(`%s
Version:    %s
Git commit: %s
Built:      %s
Go version: %s
Platform:   %s`,
		BinaryName, Version, GitCommit, BuildTime, GoVersion, Platform)
}
