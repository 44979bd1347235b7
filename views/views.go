// Package views embeds the HTML templates consumed by the render layer.
// Presentation is intentionally minimal; the markup exists only as a render
// target for the view models the handlers produce.
package views

import "embed"

//go:embed *.html
var FS embed.FS
