// Package ui holds the HTML templates of the library view.
package ui

import "embed"

//go:embed *.html
var Templates embed.FS
