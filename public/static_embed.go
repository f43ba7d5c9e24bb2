// Package public embeds the admin stylesheet and scripts.
package public

import (
	"embed"
	"io/fs"
)

//go:embed static/admin.css static/admin.js
var assets embed.FS

// StaticFS returns the assets rooted at the static directory.
func StaticFS() (fs.FS, error) {
	return fs.Sub(assets, "static")
}
