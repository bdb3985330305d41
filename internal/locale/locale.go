// Package locale provides the message catalogues used for validation errors,
// placeholders and notices. Catalogues are TOML files embedded in the binary
// and loaded into a go-i18n bundle; extra catalogues can be layered on top
// from disk.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed catalog/*.toml
var catalogs embed.FS

// DefaultLocale is used when a caller does not name one or names a locale
// without a catalogue.
const DefaultLocale = "en"

// ErrMissingMessage is returned when no catalogue defines a message id.
var ErrMissingMessage = errors.New("locale: missing message")

// Translator resolves message ids against the loaded catalogues.
type Translator struct {
	bundle *i18n.Bundle

	mu         sync.RWMutex
	localizers map[string]*i18n.Localizer
}

// Option configures a Translator.
type Option func(*config)

type config struct {
	files []string
}

// WithMessageFiles loads additional catalogue files (for example
// "locales/active.fr.toml"). The language is taken from the file name.
func WithMessageFiles(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.files = append(cfg.files, trimmed)
			}
		}
	}
}

// New builds a Translator with the embedded catalogues plus any extra files.
func New(options ...Option) (*Translator, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := catalogs.ReadDir("catalog")
	if err != nil {
		return nil, fmt.Errorf("locale: read embedded catalogues: %w", err)
	}
	for _, entry := range entries {
		name := path.Join("catalog", entry.Name())
		data, err := catalogs.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("locale: read %s: %w", name, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, entry.Name()); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", name, err)
		}
	}

	for _, file := range cfg.files {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return nil, fmt.Errorf("locale: load %s: %w", file, err)
		}
	}

	return &Translator{
		bundle:     bundle,
		localizers: make(map[string]*i18n.Localizer),
	}, nil
}

var (
	defaultOnce       sync.Once
	defaultTranslator *Translator
)

// Default returns a shared Translator over the embedded catalogues.
func Default() *Translator {
	defaultOnce.Do(func() {
		t, err := New()
		if err != nil {
			panic(err)
		}
		defaultTranslator = t
	})
	return defaultTranslator
}

// Translate renders the message id for locale. An optional first argument of
// type map[string]any supplies template data. Locales without the message
// fall back to English.
func (t *Translator) Translate(locale, key string, args ...any) (string, error) {
	if t == nil {
		return "", ErrMissingMessage
	}
	cfg := &i18n.LocalizeConfig{MessageID: key}
	if len(args) > 0 {
		if data, ok := args[0].(map[string]any); ok {
			cfg.TemplateData = data
		}
	}

	msg, err := t.localizer(locale).Localize(cfg)
	if err == nil {
		return msg, nil
	}
	if normalizeLocale(locale) != DefaultLocale {
		if msg, fallbackErr := t.localizer(DefaultLocale).Localize(cfg); fallbackErr == nil {
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s): %v", ErrMissingMessage, key, locale, err)
}

// Locales lists the languages with at least one catalogue.
func (t *Translator) Locales() []string {
	tags := t.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

func (t *Translator) localizer(locale string) *i18n.Localizer {
	key := normalizeLocale(locale)

	t.mu.RLock()
	l, ok := t.localizers[key]
	t.mu.RUnlock()
	if ok {
		return l
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.localizers[key]; ok {
		return l
	}
	l = i18n.NewLocalizer(t.bundle, key, DefaultLocale)
	t.localizers[key] = l
	return l
}

func normalizeLocale(locale string) string {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return DefaultLocale
	}
	return tag.String()
}
