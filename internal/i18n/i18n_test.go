package i18n

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New("")
	require.NoError(t, err)
	return c
}

func TestNew_DefaultsToSpanish(t *testing.T) {
	c := newCatalog(t)
	assert.Equal(t, "es", c.Locale())
	assert.Equal(t, []string{"en", "es", "fr"}, c.Locales())
	assert.Equal(t, "Dirección", c.Translate("address", nil))
}

func TestNew_UnsupportedDefault(t *testing.T) {
	_, err := New("de")
	assert.ErrorIs(t, err, ErrUnsupportedLocale)
}

func TestTranslate_Placeholders(t *testing.T) {
	c := newCatalog(t)
	assert.Equal(t, "Hospitales (3)", c.Translate("hospitals", map[string]string{"count": "3"}))
	assert.Equal(t, "Hospitals (3)", c.TranslateIn("en", "hospitals", map[string]string{"count": "3"}))
	assert.Equal(t, "Emplacement sélectionné : 1.5, 2", c.TranslateIn("fr", "locationSelected", map[string]string{"lat": "1.5", "lng": "2"}))
}

func TestTranslate_UnknownKeyFallsBackToKey(t *testing.T) {
	c := newCatalog(t)
	assert.Equal(t, "does.not.exist", c.Translate("does.not.exist", nil))
	assert.Equal(t, "does.not.exist", c.TranslateIn("fr", "does.not.exist", nil))
}

func TestSetLocale(t *testing.T) {
	c := newCatalog(t)

	require.NoError(t, c.SetLocale("FR"))
	assert.Equal(t, "fr", c.Locale())
	assert.Equal(t, "Adresse", c.Translate("address", nil))

	assert.ErrorIs(t, c.SetLocale("de"), ErrUnsupportedLocale)
	assert.Equal(t, "fr", c.Locale())
}

func TestNegotiate(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "en"},
		{"fr-CA", "fr"},
		{"es-MX", "es"},
		{"de-DE", "es"},
		{"", "es"},
		{"not a header;;", "es"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Negotiate(tt.header))
		})
	}
}

func TestMessages(t *testing.T) {
	c := newCatalog(t)

	m, err := c.Messages("en")
	require.NoError(t, err)
	assert.Equal(t, "Hospitals ({{.count}})", m["hospitals"])

	_, err = c.Messages("de")
	assert.ErrorIs(t, err, ErrUnsupportedLocale)
}

func TestLocalesHaveSameKeys(t *testing.T) {
	c := newCatalog(t)
	es, err := c.Messages("es")
	require.NoError(t, err)

	for _, code := range []string{"en", "fr"} {
		m, err := c.Messages(code)
		require.NoError(t, err)
		for k := range es {
			assert.Contains(t, m, k, "locale %s missing %s", code, k)
		}
		assert.Len(t, m, len(es))
	}
}

func TestFor(t *testing.T) {
	c := newCatalog(t)
	assert.Equal(t, "Phone", c.For("en").Translate("phone", nil))
	assert.Equal(t, "Téléphone", c.For("fr").Translate("phone", nil))
	assert.Equal(t, "Teléfono", c.For("xx").Translate("phone", nil))
}

func TestCatalog_ConcurrentLocaleSwitch(t *testing.T) {
	c := newCatalog(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.SetLocale([]string{"en", "es", "fr"}[i%3])
			_ = c.Translate("address", nil)
		}(i)
	}
	wg.Wait()
	assert.Contains(t, c.Locales(), c.Locale())
}
