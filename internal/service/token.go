package service

import (
	"regexp"

	"github.com/openfintools/personalcapital/internal/pcerr"
)

// csrfPattern matches the anti-forgery token the upstream embeds in a
// script assignment on the landing page. An undocumented scrape: when it
// stops matching, the upstream markup has changed.
var csrfPattern = regexp.MustCompile(`csrf *= *'([-a-z0-9]+)'`)

// ExtractEmbeddedToken recovers the embedded anti-forgery token from page
// HTML. It returns a ProtocolError when the pattern is not found.
func ExtractEmbeddedToken(html string) (string, error) {
	m := csrfPattern.FindStringSubmatch(html)
	if m == nil {
		return "", &pcerr.ProtocolError{Pattern: csrfPattern.String()}
	}
	return m[1], nil
}
