// Package device turns raw User-Agent strings into short display names for
// customer-facing audit history ("Chrome on Mac OS X").
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// UnknownDevice is returned when the user agent is empty, anonymized, or
// unparseable.
const UnknownDevice = "Unknown Device"

// DisplayName derives a human-readable device label from a User-Agent string.
func DisplayName(userAgentString string) string {
	if userAgentString == "" || userAgentString == "unknown" || userAgentString == "anonymized" {
		return UnknownDevice
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	}

	if ua.Bot() {
		return "Bot"
	}

	// Fall back to the first token, trimmed of version noise.
	token := strings.SplitN(userAgentString, " ", 2)[0]
	if name, _, found := strings.Cut(token, "/"); found && name != "" {
		return name
	}
	if token != "" {
		return token
	}
	return UnknownDevice
}
