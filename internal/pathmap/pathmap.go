// Package pathmap rewrites catalog file paths to local mount paths and
// matches filenames against the optional filemask filter.
package pathmap

import (
	"path"
	"path/filepath"
	"strings"
)

// Rule rewrites one catalog path prefix to a local prefix.
type Rule struct {
	CatalogPrefix string
	LocalPrefix   string
}

// Mapper applies an ordered set of translation rules.
type Mapper struct {
	rules []Rule
}

// NewMapper builds a mapper from the provided rules, skipping rules
// with an empty catalog prefix.
func NewMapper(rules []Rule) *Mapper {
	kept := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(rule.CatalogPrefix) == "" {
			continue
		}
		kept = append(kept, rule)
	}
	return &Mapper{rules: kept}
}

// Translate rewrites the first matching catalog prefix and cleans the
// result. Paths with no matching rule pass through unchanged apart from
// cleaning.
func (m *Mapper) Translate(catalogPath string) string {
	translated := catalogPath
	for _, rule := range m.rules {
		if strings.HasPrefix(translated, rule.CatalogPrefix) {
			translated = rule.LocalPrefix + translated[len(rule.CatalogPrefix):]
			break
		}
	}
	return filepath.Clean(translated)
}

// MatchesMask reports whether the basename of catalogPath matches the
// shell glob mask. An empty mask matches everything; a malformed mask
// matches nothing.
func MatchesMask(catalogPath, mask string) bool {
	mask = strings.TrimSpace(mask)
	if mask == "" {
		return true
	}
	// Catalog paths always use forward slashes regardless of the
	// node's native separator.
	base := path.Base(strings.ReplaceAll(catalogPath, "\\", "/"))
	ok, err := path.Match(mask, base)
	if err != nil {
		return false
	}
	return ok
}
