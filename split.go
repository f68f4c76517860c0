package toxloop

import (
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/toxloop/limits"
)

// SplitMessage cuts text into pieces SendMessage accepts. A piece ends where
// the last run of whitespace that fits starts, and one whitespace character
// is dropped at the cut. Text without such whitespace is cut at the last rune
// that fits. Runes are never split.
func SplitMessage(text string) []string {
	var pieces []string
	for len(text) > limits.MaxMessageLength {
		cut, skip := splitPoint(text, limits.MaxMessageLength)
		pieces = append(pieces, text[:cut])
		text = text[cut+skip:]
	}
	if len(text) > 0 {
		pieces = append(pieces, text)
	}
	return pieces
}

// splitPoint returns where to cut text so the first piece holds at most max
// bytes, and how many bytes to drop after the cut.
func splitPoint(text string, max int) (cut, skip int) {
	space := 0
	inSpace := false
	for i, r := range text {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = 1
		}
		if i+size > max {
			if space > 0 {
				_, n := utf8.DecodeRuneInString(text[space:])
				return space, n
			}
			return i, 0
		}
		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				space = i
			}
		} else {
			inSpace = false
		}
	}
	return len(text), 0
}
