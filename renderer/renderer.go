// Package renderer turns reports on portfolios and symbols into markdown.
package renderer

import (
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"stars": func(n int) string { return strings.Repeat("*", n) },
}

// renderTemplate executes a markdown template on data. Errors are rendered
// in place of the report.
func renderTemplate(name, text string, data any) string {
	tmpl, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return fmt.Sprintf("error parsing template %q: %v", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", name, err)
	}
	return b.String()
}
