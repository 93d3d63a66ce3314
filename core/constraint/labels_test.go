package constraint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

func TestLabels_Resolve(t *testing.T) {
	labels := constraint.NewLabels(map[string]string{
		"it": "dati destagionalizzati",
		"en": "seasonally adjusted data",
	})

	tests := []struct {
		name      string
		preferred []string
		wantName  string
		wantLang  string
	}{
		{"first preferred language", []string{"it", "en"}, "dati destagionalizzati", "it"},
		{"skips missing preferences", []string{"fr", "en"}, "seasonally adjusted data", "en"},
		{"falls back to default language", []string{"fr"}, "seasonally adjusted data", "en"},
		{"regional tag matches base language", []string{"it-CH"}, "dati destagionalizzati", "it"},
		{"no preferences uses default", nil, "seasonally adjusted data", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, lang, ok := labels.Resolve(tt.preferred, constraint.DefaultLanguage)
			assert.True(t, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantLang, lang)
		})
	}

	t.Run("last resort is lexicographically smallest language", func(t *testing.T) {
		l := constraint.NewLabels(map[string]string{"it": "Mar-2015", "de": "Mär-2015", "default": "2015M3"})
		name, lang, ok := l.Resolve([]string{"fr"}, "en")
		assert.True(t, ok)
		assert.Equal(t, "de", lang)
		assert.Equal(t, "Mär-2015", name)
	})

	t.Run("empty labels do not resolve", func(t *testing.T) {
		_, _, ok := constraint.NewLabels(nil).Resolve([]string{"en"}, "en")
		assert.False(t, ok)
	})

	t.Run("blank names are dropped", func(t *testing.T) {
		l := constraint.NewLabels(map[string]string{"en": "  ", "it": "mensile"})
		assert.Equal(t, []string{"it"}, l.Languages())
		assert.Equal(t, 1, l.Len())
	})
}
