// Package sharelink extracts event identifiers from pasted share links and
// builds new ones.
package sharelink

import (
	"net/url"
	"strings"
	"unicode"
)

// QueryKey is the query parameter carrying the event identifier.
const QueryKey = "eventId"

// minPathIDLength is the length above which a trailing path segment is
// treated as a store-generated identifier rather than something typed by hand.
const minPathIDLength = 10

// ExtractEventID returns the identifier following "eventId=" when present,
// otherwise the last "/" separated segment when it is longer than ten
// characters, otherwise the input unchanged. It never fails.
func ExtractEventID(input string) string {
	marker := QueryKey + "="
	if idx := strings.Index(input, marker); idx >= 0 {
		rest := input[idx+len(marker):]
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r == '&' || unicode.IsSpace(r)
		})
		if end >= 0 {
			rest = rest[:end]
		}
		if rest != "" {
			return rest
		}
	}

	if strings.Contains(input, "/") {
		segments := strings.Split(input, "/")
		last := segments[len(segments)-1]
		if len(last) > minPathIDLength {
			return last
		}
	}

	return input
}

// ShareURL builds the link participants open to answer an event.
func ShareURL(baseURL, eventID string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + "/?" + QueryKey + "=" + url.QueryEscape(eventID)
}
