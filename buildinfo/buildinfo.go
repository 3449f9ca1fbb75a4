// Package buildinfo holds the name and version the agent reports on its
// health endpoint, in mDNS records, in the tray and in the User-Agent of pass
// downloads. Release builds stamp Version, Commit and BuildTime with
//
//	-ldflags "-X github.com/dotside-studios/davi-tap-lab/buildinfo.Version=1.2.0"
package buildinfo

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	// Name identifies the binary in logs, flags and the User-Agent.
	Name = "davi-tap-lab"

	// DirName is the directory under os.UserConfigDir holding the wallet
	// database and certificates.
	DirName = "davi-tap-lab"

	// DisplayName is shown in the tray and advertised over mDNS.
	DisplayName = "Davi Tap Lab"

	Description = "NFC tag and wallet pass test bench"

	// Stamped by release builds.
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// FullVersion is Version, followed by the short commit in parentheses when
// one was stamped.
func FullVersion() string {
	if Commit != "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return Version
}

// UserAgent is sent with .pkpass downloads.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, Version)
}

// BuildInfo is the text printed by -version.
func BuildInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Name, FullVersion())
	fmt.Fprintf(&b, "  %s\n", Description)
	fmt.Fprintf(&b, "  Go: %s\n", runtime.Version())
	fmt.Fprintf(&b, "  OS/Arch: %s/%s", runtime.GOOS, runtime.GOARCH)
	if BuildTime != "" {
		fmt.Fprintf(&b, "\n  Built: %s", BuildTime)
	}
	return b.String()
}

func IsDev() bool {
	return Version == "dev"
}
