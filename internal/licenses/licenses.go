// Package licenses embeds the aegis license text and a third-party notices
// file listing aegis's open-source dependencies (runtime and test-only),
// for the `aegis license` command.
package licenses

import (
	_ "embed"
	"strings"
)

//go:embed assets/LICENSE
var licenseText string

//go:embed assets/THIRD_PARTY_NOTICES
var thirdPartyText string

// LicenseText returns the project's own license text.
func LicenseText() string {
	return strings.TrimRight(licenseText, "\n")
}

// ThirdPartyText returns the bundled third-party notices.
func ThirdPartyText() string {
	return strings.TrimRight(thirdPartyText, "\n")
}
