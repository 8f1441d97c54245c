package themes

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	// Name is the site's theme manifest.
	Name = "dogfood"

	VariantDark  = "dark"
	VariantLight = "light"

	// DefaultVariant applies when the visitor has no stored preference.
	DefaultVariant = VariantDark
)

// Manifest returns the dogfood theme: shared accent tokens plus dark and
// light surface variants.
func Manifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    Name,
		Version: "1.0.0",
		Tokens: map[string]string{
			"accent":        "#e0115f",
			"accent-hover":  "#b80d4a",
			"accent-bright": "#ff1a6b",
			"radius":        "1rem",
			"font-body":     "Inter, system-ui, sans-serif",
		},
		Templates: map[string]string{
			"layout.page":  "templates/page.tmpl",
			"layout.modal": "templates/modal.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/static",
			Files: map[string]string{
				"stylesheet": "site.css",
				"logo":       "logo.svg",
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {
				Tokens: map[string]string{
					"bg":      "#0a0a0a",
					"surface": "rgba(255,255,255,0.05)",
					"border":  "rgba(255,255,255,0.10)",
					"fg":      "#ffffff",
					"muted":   "rgba(255,255,255,0.60)",
					"overlay": "rgba(0,0,0,0.80)",
				},
			},
			VariantLight: {
				Tokens: map[string]string{
					"bg":      "#ffffff",
					"surface": "rgba(0,0,0,0.04)",
					"border":  "rgba(0,0,0,0.10)",
					"fg":      "#0a0a0a",
					"muted":   "rgba(0,0,0,0.60)",
					"overlay": "rgba(0,0,0,0.60)",
				},
			},
		},
	}
}

// Selector resolves theme and variant names against registered manifests,
// falling back to the configured defaults.
type Selector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// NewSelector registers manifests; the first one becomes the default theme.
// With no manifests the dogfood theme is used.
func NewSelector(manifests ...*theme.Manifest) (*Selector, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{Manifest()}
	}
	registry := theme.NewRegistry()
	s := &Selector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultVariant: DefaultVariant,
	}
	for _, m := range manifests {
		if m == nil {
			continue
		}
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("themes: register %q: %w", m.Name, err)
		}
		s.manifests[m.Name] = m
		if s.defaultTheme == "" {
			s.defaultTheme = m.Name
		}
	}
	if s.defaultTheme == "" {
		return nil, fmt.Errorf("themes: no manifest registered")
	}
	return s, nil
}

// Select returns the requested theme and variant. Unknown or empty names fall
// back to the defaults.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	manifest, ok := s.manifests[name]
	if !ok {
		name = s.defaultTheme
		manifest = s.manifests[name]
	}
	variant = NormaliseVariant(variant)
	if _, ok := manifest.Variants[variant]; !ok {
		variant = s.defaultVariant
	}
	return &theme.Selection{
		Theme:    name,
		Variant:  variant,
		Manifest: manifest,
	}, nil
}

// Variants lists the variants of the default theme.
func (s *Selector) Variants() []string {
	manifest := s.manifests[s.defaultTheme]
	out := make([]string, 0, len(manifest.Variants))
	for name := range manifest.Variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RendererConfig flattens a selection into what renderers consume: variant
// tokens override base tokens, every token is exposed as a CSS custom
// property, and asset keys resolve to URLs.
func RendererConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	manifest := sel.Manifest
	variant := manifest.Variants[sel.Variant]

	tokens := mergeMaps(manifest.Tokens, variant.Tokens)
	partials := mergeMaps(manifest.Templates, variant.Templates)
	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	files := mergeMaps(manifest.Assets.Files, variant.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

// Resolve selects variant of the default theme and flattens it.
func (s *Selector) Resolve(variant string) *theme.RendererConfig {
	sel, err := s.Select(s.defaultTheme, variant)
	if err != nil {
		return nil
	}
	return RendererConfig(sel)
}

// NormaliseVariant lowercases and trims a stored preference.
func NormaliseVariant(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Toggle returns the opposite variant.
func Toggle(current string) string {
	if NormaliseVariant(current) == VariantLight {
		return VariantDark
	}
	return VariantLight
}

func mergeMaps(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
