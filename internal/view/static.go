package view

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// Static serves the stylesheet under /static/.
var Static, _ = fs.Sub(staticFiles, "static")
