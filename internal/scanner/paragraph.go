// Package scanner holds the two narrow, single-pass HTML scanners the crawler
// runs over every fetched page: internal link extraction and topic keyword
// counting. Neither is an HTML parser; both are pure and never fail.
package scanner

// contentStart returns the offset just past the first opening paragraph tag,
// or -1 when the document has none.
//
// An opening paragraph tag is "<p>" or "<p" followed by whitespace and
// attributes up to ">", in any letter case. Tags such as <pre> or <param>
// do not qualify.
func contentStart(doc string) int {
	for i := 0; i+2 < len(doc); i++ {
		if doc[i] != '<' || (doc[i+1] != 'p' && doc[i+1] != 'P') {
			continue
		}

		next := doc[i+2]
		if next == '>' {
			return i + 3
		}
		if !isSpace(next) {
			continue
		}

		// Attributes follow; the tag ends at the next '>'
		for j := i + 3; j < len(doc); j++ {
			if doc[j] == '>' {
				return j + 1
			}
		}
		return -1
	}
	return -1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
