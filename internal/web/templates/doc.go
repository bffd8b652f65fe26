// Package templates holds the HTML fragments served to HTMX clients. The
// components are written as .templ files; run `templ generate` after
// editing them.
package templates
