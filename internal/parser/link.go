package parser

import (
	"net/url"
	"strings"
)

// ResolveLink converts a raw <a href="…"> into an absolute URL string.
// Only absolute http(s) references and root-relative paths are accepted;
// everything else returns "". Root-relative values keep base's scheme and
// host.
func ResolveLink(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if !followable(raw) {
		return ""
	}

	// root-relative hrefs, "//x" included, stay on the base scheme and host
	if !strings.HasPrefix(raw, "http") {
		raw = base.Scheme + "://" + base.Host + raw
	}
	abs, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host == "" {
		return ""
	}
	abs.Fragment = "" // drop #section
	abs.RawFragment = ""

	// Normalise: add a slash if path is empty so hosts compare consistently.
	if abs.Path == "" {
		abs.Path = "/"
	}
	return abs.String()
}

func followable(raw string) bool {
	return strings.HasPrefix(raw, "http://") ||
		strings.HasPrefix(raw, "https://") ||
		strings.HasPrefix(raw, "/")
}
