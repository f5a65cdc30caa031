package dom

import "net/url"

// OriginOf returns scheme://host[:port] for rawURL, or "null" when the URL has
// no host (about:blank, data: URLs), matching what browsers report.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "null"
	}
	return u.Scheme + "://" + u.Host
}
