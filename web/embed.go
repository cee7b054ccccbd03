package web

import "embed"

// TemplatesFS embeds the page and list templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and HTMX event wiring.
//
//go:embed static/*
var StaticFS embed.FS
