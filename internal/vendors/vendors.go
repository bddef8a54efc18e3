package vendors

import (
	"net/url"
	"strings"
)

// Unknown is the sentinel vendor for domains outside the table.
// Classification never fails; generic extraction still applies.
const Unknown = "Unknown"

// domainTable maps registrable domains to vendor display names.
// Adding a vendor means adding a row here plus (optionally) a Profile.
var domainTable = map[string]string{
	"fourhands.com":        "Four Hands",
	"uttermost.com":        "Uttermost",
	"perigold.com":         "Perigold",
	"houzz.com":            "Houzz",
	"wayfair.com":          "Wayfair",
	"arteriorshome.com":    "Arteriors",
	"visualcomfort.com":    "Visual Comfort",
	"reginaandrew.com":     "Regina Andrew",
	"curreyandcompany.com": "Currey & Company",
	"bernhardt.com":        "Bernhardt",
}

// Classify maps a URL to a vendor name by its registrable domain.
// Syntactically odd input yields Unknown rather than an error.
func Classify(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return Unknown
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if vendor, ok := domainTable[host]; ok {
		return vendor
	}

	// Match subdomains against the registrable domain.
	for domain, vendor := range domainTable {
		if strings.HasSuffix(host, "."+domain) {
			return vendor
		}
	}

	return Unknown
}

// Known reports whether the vendor name came from the table.
func Known(vendor string) bool {
	return vendor != "" && vendor != Unknown
}
