// Package web holds the dashboard templates and the browser assets that
// are compiled into cmd/resto.
package web

import "embed"

// Templates holds the layouts, partials and pages parsed by internal/view.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

// Static holds the stylesheet and the kanban polling script served under /static/.
//
//go:embed static/css/*.css static/js/*.js
var Static embed.FS
