package resolver

import (
	"strings"

	"golang.org/x/text/language"
)

// ParseAcceptLanguage turns an Accept-Language header into an ordered list
// of language tags, highest quality first. Invalid headers yield nil.
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == language.Und {
			continue
		}
		s := t.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ParseLanguageList splits a comma separated list such as "it,en" and
// canonicalizes each tag. Unparseable entries are kept as given.
func ParseLanguageList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if t, err := language.Parse(part); err == nil {
			part = t.String()
		}
		out = append(out, part)
	}
	return out
}
