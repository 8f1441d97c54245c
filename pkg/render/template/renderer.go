package template

import (
	"io"
)

// TemplateRenderer is the seam HTML renderers use to execute named templates.
// Data is converted to the template context through its JSON form, so
// templates address fields by their JSON tag names.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
