// Package web holds the browser chat page served at /.
package web

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type Page struct {
	Title         string
	Welcome       string
	RequireSignIn bool
	// SignInURL is the identity provider's sign-in page, if any.
	SignInURL string
}

// Render writes the chat page with the assistant's welcome message.
func Render(w io.Writer, p Page) error {
	return indexTemplate.Execute(w, p)
}
