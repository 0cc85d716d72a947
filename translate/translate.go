// Package translate localizes the user-visible messages of revsim.
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
		log.Printf("revsim: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() style key in the current locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Number formats a value for report output, so that numbers pick up the
// locale's digit grouping.
func Number(value any) string {
	return printer.Sprint(value)
}
