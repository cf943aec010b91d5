// Package i18n holds the en/zh/es message catalogs and the active locale.
// Changing the locale notifies subscribers so views re-render in place.
package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Locale is a supported UI language.
type Locale string

const (
	EN Locale = "en"
	ZH Locale = "zh"
	ES Locale = "es"
)

// Locales lists the supported locales in switcher order.
var Locales = []Locale{ZH, EN, ES}

// Parse returns the supported locale for s. ok is false when s is not one
// of en, zh, es (region and script subtags are ignored).
func Parse(s string) (Locale, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch l := Locale(base.String()); l {
	case EN, ZH, ES:
		return l, true
	}
	return "", false
}

// Detect picks the locale from, in order: the stored choice, a forced
// configuration value, then the POSIX locale strings (LC_ALL, LANG style,
// e.g. "zh_CN.UTF-8"). English is the fallback.
func Detect(stored, configured string, env ...string) Locale {
	for _, s := range []string{stored, configured} {
		if l, ok := Parse(s); ok {
			return l
		}
	}
	for _, e := range env {
		e, _, _ = strings.Cut(e, ".")
		e, _, _ = strings.Cut(e, "@")
		if e == "" || e == "C" || e == "POSIX" {
			continue
		}
		if l, ok := Parse(strings.ReplaceAll(e, "_", "-")); ok {
			return l
		}
	}
	return EN
}

// Bundle is the active locale plus its catalog.
type Bundle struct {
	mu     sync.RWMutex
	locale Locale
	subs   map[int]func(Locale)
	nextID int
}

// NewBundle creates a bundle in locale l (EN if unsupported).
func NewBundle(l Locale) *Bundle {
	if _, ok := catalogs[l]; !ok {
		l = EN
	}
	return &Bundle{locale: l, subs: map[int]func(Locale){}}
}

func (b *Bundle) Locale() Locale {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.locale
}

// SetLocale switches the active locale and notifies subscribers when it
// changed. Unsupported locales are ignored and reported false.
func (b *Bundle) SetLocale(l Locale) bool {
	if _, ok := catalogs[l]; !ok {
		return false
	}
	b.mu.Lock()
	if b.locale == l {
		b.mu.Unlock()
		return true
	}
	b.locale = l
	subs := make([]func(Locale), 0, len(b.subs))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(l)
	}
	return true
}

// Subscribe registers fn to run after every locale change, in
// subscription order. The returned func unsubscribes.
func (b *Bundle) Subscribe(fn func(Locale)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// T renders key in the active locale, replacing "{{name}}" with
// vars["name"]. Keys missing from the locale fall back to English, then
// to the key itself.
func (b *Bundle) T(key string, vars ...map[string]string) string {
	msg, ok := catalogs[b.Locale()][key]
	if !ok {
		if msg, ok = catalogs[EN][key]; !ok {
			msg = key
		}
	}
	for _, v := range vars {
		for name, val := range v {
			msg = strings.ReplaceAll(msg, "{{"+name+"}}", val)
		}
	}
	return msg
}
