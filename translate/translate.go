// Package translate formats user-visible messages for the current locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer     *message.Printer
	printerOnce sync.Once
)

// Use selects the message printer for the first supported of the locales.
// With no locales, en-US is used.
func Use(locales ...string) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag := message.MatchLanguage(locales...)
	if tag == language.Und {
		tag = language.AmericanEnglish
	}

	printer = message.NewPrinter(tag)
}

// Locales returns the locales of the host environment.
func Locales() []string {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}

	return locales
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	printerOnce.Do(func() {
		if printer == nil {
			Use(Locales()...)
		}
	})

	return printer.Sprintf(key, args...)
}
