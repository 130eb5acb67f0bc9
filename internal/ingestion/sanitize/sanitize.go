// Package sanitize strips markup and quoting characters from free text that
// ends up in stored records or rendered pages.
package sanitize

import "strings"

var stripper = strings.NewReplacer(
	"<", "",
	">", "",
	`"`, "",
	"'", "",
	";", "",
	"=", "",
	"&", "",
)

// Text removes < > " ' ; = & and trims surrounding whitespace.
func Text(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(stripper.Replace(s))
}
