// Package i18n holds the UI string tables (es, en, fr) and locale negotiation.
package i18n

import (
	"embed"
	"path"
	"sort"
	"strings"
	"sync"

	goi18n "github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is used when nothing better can be negotiated.
const DefaultLocale = "es"

// ErrUnsupportedLocale is returned for locales without a string table.
var ErrUnsupportedLocale = eris.New("i18n: unsupported locale")

// Catalog resolves message keys for the supported locales. The active
// locale can be switched at runtime.
type Catalog struct {
	bundle     *goi18n.Bundle
	raw        map[string]map[string]string
	localizers map[string]*goi18n.Localizer
	codes      []string
	matcher    language.Matcher
	fallback   string

	mu     sync.RWMutex
	locale string
}

// New loads the embedded string tables. defaultLocale is both the initial
// locale and the negotiation fallback; empty means DefaultLocale.
func New(defaultLocale string) (*Catalog, error) {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	defaultTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, eris.Wrapf(err, "i18n: parse default locale %q", defaultLocale)
	}

	bundle := goi18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, eris.Wrap(err, "i18n: read locales")
	}

	c := &Catalog{
		bundle:     bundle,
		raw:        make(map[string]map[string]string, len(files)),
		localizers: make(map[string]*goi18n.Localizer, len(files)),
	}

	for _, f := range files {
		name := f.Name()
		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, eris.Wrapf(err, "i18n: read %s", name)
		}
		if _, err := bundle.ParseMessageFileBytes(data, name); err != nil {
			return nil, eris.Wrapf(err, "i18n: parse %s", name)
		}
		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, eris.Wrapf(err, "i18n: decode %s", name)
		}
		code := strings.TrimSuffix(name, path.Ext(name))
		c.raw[code] = table
		c.codes = append(c.codes, code)
	}
	sort.Strings(c.codes)

	fallback := defaultTag.String()
	if _, ok := c.raw[fallback]; !ok {
		return nil, eris.Wrapf(ErrUnsupportedLocale, "default locale %q", defaultLocale)
	}
	c.fallback = fallback
	c.locale = fallback

	// The matcher falls back to its first tag.
	tags := []language.Tag{defaultTag}
	for _, code := range c.codes {
		c.localizers[code] = goi18n.NewLocalizer(bundle, code)
		if code != fallback {
			tags = append(tags, language.Make(code))
		}
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Locales returns the supported locale codes, sorted.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.codes...)
}

// Locale returns the active locale.
func (c *Catalog) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locale
}

// SetLocale switches the active locale. Unsupported codes leave it unchanged.
func (c *Catalog) SetLocale(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := c.localizers[code]; !ok {
		return eris.Wrapf(ErrUnsupportedLocale, "%q", code)
	}
	c.mu.Lock()
	c.locale = code
	c.mu.Unlock()
	return nil
}

// Negotiate picks the best supported locale for an Accept-Language header
// or a bare language code such as "fr-CA".
func (c *Catalog) Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback
	}
	if idx == 0 {
		return c.fallback
	}
	codes := make([]string, 0, len(c.codes))
	for _, code := range c.codes {
		if code != c.fallback {
			codes = append(codes, code)
		}
	}
	return codes[idx-1]
}

// Translate resolves key in the active locale.
func (c *Catalog) Translate(key string, placeholders map[string]string) string {
	return c.TranslateIn(c.Locale(), key, placeholders)
}

// TranslateIn resolves key in locale, substituting placeholders. Unknown
// keys resolve to the key itself.
func (c *Catalog) TranslateIn(locale, key string, placeholders map[string]string) string {
	loc, ok := c.localizers[locale]
	if !ok {
		loc = c.localizers[c.fallback]
	}
	cfg := &goi18n.LocalizeConfig{MessageID: key}
	if len(placeholders) > 0 {
		cfg.TemplateData = placeholders
	}
	s, err := loc.Localize(cfg)
	if err != nil || s == "" {
		return key
	}
	return s
}

// Messages returns the raw string table for locale, templates unrendered.
func (c *Catalog) Messages(locale string) (map[string]string, error) {
	table, ok := c.raw[locale]
	if !ok {
		return nil, eris.Wrapf(ErrUnsupportedLocale, "%q", locale)
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, nil
}

// For returns a translator bound to locale.
func (c *Catalog) For(locale string) Localized {
	return Localized{catalog: c, locale: locale}
}

// Localized is a Catalog bound to one locale.
type Localized struct {
	catalog *Catalog
	locale  string
}

// Translate resolves key in the bound locale.
func (l Localized) Translate(key string, placeholders map[string]string) string {
	return l.catalog.TranslateIn(l.locale, key, placeholders)
}
