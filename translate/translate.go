// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate formats diagnostics for the user's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("armulet: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
//
// Numbers are rendered with the locale's grouping, so machine readable
// output (such as the emulator state dump) must not go through here.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
