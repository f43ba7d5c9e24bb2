package helpers

import (
	"net/url"
	"strings"
)

// ResolveImageURL turns a stored image path into a URL the browser can load.
// Absolute URLs are kept; relative paths are joined to the origin of apiBase.
func ResolveImageURL(apiBase, imagePath string) string {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return ""
	}
	if parsed, err := url.Parse(imagePath); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return imagePath
	}
	base, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "/" + strings.TrimLeft(imagePath, "/")
	}
	return base.Scheme + "://" + base.Host + "/" + strings.TrimLeft(imagePath, "/")
}
