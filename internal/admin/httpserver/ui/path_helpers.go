package ui

import (
	"net/url"
	"strings"
)

func joinBasePath(basePath, suffix string) string {
	base := strings.TrimSpace(basePath)
	if base == "" {
		base = "/admin"
	}
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	if base == "/" {
		return suffix
	}
	return strings.TrimRight(base, "/") + suffix
}

func productPath(basePath, id, action string) string {
	p := "/products/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return joinBasePath(basePath, p)
}

func urlQueryEscape(value string) string {
	return url.QueryEscape(value)
}
