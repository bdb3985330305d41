package template

import (
	"io"
)

// TemplateRenderer renders a named template with a data map. Implementations
// must be safe for concurrent use.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error)
}
