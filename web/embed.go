// Package web embeds the static tutoring UI and serves it over HTTP.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler returns an http.Handler serving the embedded UI. The root path
// serves index.html; everything else resolves against the static tree.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
