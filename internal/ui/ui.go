// Package ui serves the embedded single-page comparison frontend.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// Handler serves the embedded UI assets.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// embed guarantees static/ exists at build time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
