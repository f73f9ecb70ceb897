// Package web embeds the search page templates and static assets.
package web

import "embed"

// Files holds templates/ (rendered by the html engine) and static/
// (served under /static).
//
//go:embed templates static
var Files embed.FS
