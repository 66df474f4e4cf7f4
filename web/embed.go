// Package web holds the marketing site's page and assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var content embed.FS

// Static returns the site assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// IndexHTML returns the landing page.
func IndexHTML() string {
	data, err := fs.ReadFile(content, "static/index.html")
	if err != nil {
		panic(err)
	}
	return string(data)
}
