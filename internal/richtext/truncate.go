package richtext

import "github.com/rivo/uniseg"

// Truncate shortens text to at most n grapheme clusters, appending an
// ellipsis when anything was cut. Emoji sequences and combining marks are
// never split.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}

	gr := uniseg.NewGraphemes(text)
	count := 0
	for gr.Next() {
		count++
		if count > n {
			start, _ := gr.Positions()
			return text[:start] + "…"
		}
	}
	return text
}
