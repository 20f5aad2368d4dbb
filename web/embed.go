// Package web embeds the dashboard templates and stylesheet.
package web

import "embed"

// TemplatesFS holds the page, partial and error templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
