// Package web embeds the single-page character manager UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Handler serves the UI assets rooted at static/.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic("web: static assets missing: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
