package constraint

import (
	"maps"
	"slices"
	"strings"
)

// DefaultLanguage is the fallback language used when none of the preferred
// languages has a name.
const DefaultLanguage = "en"

// Labels maps a language code to a display name. The zero value holds no names.
// Labels is immutable: Map and Languages return copies.
type Labels struct {
	names map[string]string
	langs []string // sorted, used for the deterministic last-resort fallback
}

// NewLabels builds Labels from a language->name map. Blank names are dropped.
func NewLabels(names map[string]string) Labels {
	l := Labels{names: make(map[string]string, len(names))}
	for lang, name := range names {
		if lang == "" || strings.TrimSpace(name) == "" {
			continue
		}
		l.names[lang] = name
	}
	l.langs = slices.Sorted(maps.Keys(l.names))
	return l
}

// Get returns the name for an exact language key.
func (l Labels) Get(lang string) (string, bool) {
	name, ok := l.names[lang]
	return name, ok
}

// Len returns the number of languages with a name.
func (l Labels) Len() int { return len(l.langs) }

// IsEmpty reports whether no language has a name.
func (l Labels) IsEmpty() bool { return len(l.langs) == 0 }

// Languages returns the available language codes in lexicographic order.
func (l Labels) Languages() []string { return slices.Clone(l.langs) }

// Map returns a copy of the underlying language->name map.
func (l Labels) Map() map[string]string { return maps.Clone(l.names) }

// Resolve picks a name following the fallback policy: each preferred language
// in order (a regional tag such as "en-GB" also tries its base "en"), then
// defaultLang, then the lexicographically smallest available language.
// ok is false only when Labels is empty.
func (l Labels) Resolve(preferred []string, defaultLang string) (name, lang string, ok bool) {
	for _, p := range preferred {
		if name, ok := l.names[p]; ok {
			return name, p, true
		}
		if base := baseLanguage(p); base != p {
			if name, ok := l.names[base]; ok {
				return name, base, true
			}
		}
	}
	if defaultLang != "" {
		if name, ok := l.names[defaultLang]; ok {
			return name, defaultLang, true
		}
	}
	if len(l.langs) == 0 {
		return "", "", false
	}
	first := l.langs[0]
	return l.names[first], first, true
}

// Equal reports whether both Labels hold the same names.
func (l Labels) Equal(other Labels) bool {
	return maps.Equal(l.names, other.names)
}

func baseLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}
