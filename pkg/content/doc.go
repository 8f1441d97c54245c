// Package content holds the marketing site copy, the FAQ accordion state and
// the start-project contact form. Copy is embedded YAML; inline SVG icons are
// sanitised on load.
package content
