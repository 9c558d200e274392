// Package web carries the page templates and browser assets compiled
// into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static
var files embed.FS

// Templates returns the page templates rooted at templates/.
func Templates() fs.FS { return mustSub("templates") }

// Static returns the css and js served under /static/.
func Static() fs.FS { return mustSub("static") }

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
