package scanner

// boundary lists the characters allowed on either side of a counted keyword
var boundary = [256]bool{
	' ': true, '\t': true, '\n': true, '\r': true, '\f': true, '\v': true,
	'/': true, '-': true, ';': true, ':': true, '"': true, '@': true,
	'!': true, '(': true, ')': true, '[': true, ']': true, '{': true,
	'}': true, '=': true, '+': true, '<': true, '>': true,
}

// CountKeyword counts whole-word, case-sensitive occurrences of keyword in
// the visible text of doc after the first content paragraph begins.
//
// Text between '<' and the next '>' is markup and is skipped. A match counts
// only when the characters on both sides of it are boundary characters;
// the start and end of the document also count as boundaries.
func CountKeyword(doc, keyword string) int {
	if keyword == "" {
		return 0
	}
	start := contentStart(doc)
	if start < 0 {
		return 0
	}

	count := 0
	visible := true
	for i := start; i < len(doc); i++ {
		switch doc[i] {
		case '<':
			visible = false
			continue
		case '>':
			visible = true
			continue
		}
		if !visible || !matchesAt(doc, keyword, i) {
			continue
		}

		end := i + len(keyword)
		if isBoundaryAt(doc, i-1) && isBoundaryAt(doc, end) {
			count++
			// The trailing boundary is left to the outer loop, it may be a tag
			i = end - 1
		}
	}

	return count
}

// Relevance scores doc against every topic. The result is the sum of the
// per-topic counts when each topic occurs at least once, and 0 otherwise.
// An empty topic list scores 0.
func Relevance(doc string, topics []string) int {
	if len(topics) == 0 {
		return 0
	}

	total := 0
	for _, topic := range topics {
		n := CountKeyword(doc, topic)
		if n == 0 {
			return 0
		}
		total += n
	}
	return total
}

// matchesAt reports whether keyword occurs at i without crossing into markup
func matchesAt(doc, keyword string, i int) bool {
	if i+len(keyword) > len(doc) {
		return false
	}
	for k := 0; k < len(keyword); k++ {
		c := doc[i+k]
		if c != keyword[k] || (k > 0 && c == '<') {
			return false
		}
	}
	return true
}

func isBoundaryAt(doc string, i int) bool {
	if i < 0 || i >= len(doc) {
		return true
	}
	return boundary[doc[i]]
}
