// Package web embeds the page layouts and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed layouts
var layouts embed.FS

//go:embed static
var static embed.FS

// Layouts returns the template tree rooted at layouts/.
func Layouts() fs.FS {
	sub, err := fs.Sub(layouts, "layouts")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static returns the asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
