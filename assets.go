package formwise

import (
	"io/fs"

	"github.com/goliatone/go-formwise/pkg/renderers/html"
)

// AssetsFS exposes the default stylesheet so Go applications can serve it.
//
// Typical mount:
//
//	mux.Handle("/formwise/",
//	  http.StripPrefix("/formwise/",
//	    http.FileServerFS(formwise.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
