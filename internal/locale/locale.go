// Package locale provides the user-visible strings with a two-level lookup:
// the selected locale first, then the default locale, then the key itself.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bundles/*.yaml
var bundlesFS embed.FS

// DefaultLocale is the fallback for keys a selected locale does not carry.
const DefaultLocale = "en"

// Strings resolves keys against a selected locale with fallback.
type Strings struct {
	selected map[string]string
	fallback map[string]string
	locale   string
}

// Resolve loads the embedded bundles and returns a lookup for the selected
// locale. Unknown locales resolve entirely through the fallback.
func Resolve(selected string) (*Strings, error) {
	bundles, err := loadBundles()
	if err != nil {
		return nil, err
	}

	fallback, ok := bundles[DefaultLocale]
	if !ok {
		return nil, fmt.Errorf("default locale bundle %q is missing", DefaultLocale)
	}

	return &Strings{
		selected: bundles[selected],
		fallback: fallback,
		locale:   selected,
	}, nil
}

// Locale returns the selected locale code.
func (s *Strings) Locale() string {
	return s.locale
}

// T translates a key, falling back to the default locale and finally to the
// key itself so a missing entry is visible instead of blank.
func (s *Strings) T(key string) string {
	if v, ok := s.selected[key]; ok {
		return v
	}
	if v, ok := s.fallback[key]; ok {
		return v
	}
	return key
}

// Available lists the locale codes with an embedded bundle.
func Available() ([]string, error) {
	entries, err := fs.ReadDir(bundlesFS, "bundles")
	if err != nil {
		return nil, fmt.Errorf("failed to read locale bundles: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	return out, nil
}

func loadBundles() (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(bundlesFS, "bundles")
	if err != nil {
		return nil, fmt.Errorf("failed to read locale bundles: %w", err)
	}

	bundles := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		data, err := bundlesFS.ReadFile(path.Join("bundles", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read bundle %s: %w", e.Name(), err)
		}
		var bundle map[string]string
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("failed to parse bundle %s: %w", e.Name(), err)
		}
		bundles[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = bundle
	}
	return bundles, nil
}
