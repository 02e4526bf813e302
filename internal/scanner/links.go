package scanner

import "strings"

const (
	// LinkPrefix starts every internal link
	LinkPrefix = "/wiki/"

	// NavigationMarker opens the site chrome; no links are taken past it
	NavigationMarker = `id="mw-navigation"`
)

// ExtractLinks returns the internal links found in the body content of doc,
// in document order and including repeats.
//
// Scanning starts after the first opening paragraph tag. A link begins at
// "/wiki/" and runs to the next double quote. A '#' or ':' inside it drops
// the link (fragments and namespaced pages), as does running out of input.
// Everything after NavigationMarker is ignored.
func ExtractLinks(doc string) []string {
	start := contentStart(doc)
	if start < 0 {
		return nil
	}

	var links []string
	for i := start; i < len(doc); i++ {
		rest := doc[i:]

		if strings.HasPrefix(rest, NavigationMarker) {
			break
		}
		if !strings.HasPrefix(rest, LinkPrefix) {
			continue
		}

		link, end, ok := readLink(doc, i+len(LinkPrefix))
		if ok {
			links = append(links, link)
		}
		if end >= len(doc) {
			break
		}
		// Resume after the character that closed or rejected the candidate
		i = end
	}

	return links
}

// readLink accumulates a candidate starting at from (just past the prefix).
// It returns the link, the offset of the terminating character, and whether
// the candidate was kept.
func readLink(doc string, from int) (string, int, bool) {
	for j := from; j < len(doc); j++ {
		switch doc[j] {
		case '"':
			return LinkPrefix + doc[from:j], j, true
		case '#', ':':
			return "", j, false
		}
	}
	return "", len(doc), false
}
