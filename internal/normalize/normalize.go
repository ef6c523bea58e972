// Package normalize implements the text normalizer (C1): a pure, idempotent
// function that repairs common mis-encodings, expands ligatures, and
// tidies whitespace/punctuation ahead of chunking and embedding.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ligatures maps common Latin-script ligatures to their expansions.
var ligatures = map[string]string{
	"ﬀ": "ff",
	"ﬁ": "fi",
	"ﬂ": "fl",
	"ﬃ": "ffi",
	"ﬄ": "ffl",
	"œ": "oe",
	"Œ": "OE",
	"æ": "ae",
	"Æ": "AE",
}

// floatingAcute repairs a combining/floating acute accent that merged with
// the following vowel during a lossy re-encoding (e.g. "´e" -> "é").
var floatingAcute = regexp.MustCompile("´([aeiouAEIOU])")

var multiNewline = regexp.MustCompile(`\n{3,}`)
var horizontalWS = regexp.MustCompile(`[ \t\r\f\v]+`)
var spaceBeforePunct = regexp.MustCompile(`\s+([.,!?;:])`)

var accented = map[rune]rune{
	'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú',
	'A': 'Á', 'E': 'É', 'I': 'Í', 'O': 'Ó', 'U': 'Ú',
}

// Normalize applies NFC normalization, mis-encoding repair, ligature
// expansion, and whitespace/punctuation tidying, in that order. It is pure and
// idempotent: Normalize(Normalize(x)) == Normalize(x) for all x.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = repairFloatingAcute(text)
	text = expandLigatures(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = collapseWhitespace(text)
	text = normalizePunctuationSpacing(text)
	return strings.TrimSpace(text)
}

func repairFloatingAcute(s string) string {
	return floatingAcute.ReplaceAllStringFunc(s, func(m string) string {
		r := []rune(m)
		if repl, ok := accented[r[1]]; ok {
			return string(repl)
		}
		return m
	})
}

func expandLigatures(s string) string {
	for lig, expansion := range ligatures {
		s = strings.ReplaceAll(s, lig, expansion)
	}
	return s
}

// collapseWhitespace collapses runs of horizontal whitespace to a single
// space while preserving "\n\n" as a paragraph separator (3+ consecutive
// newlines collapse to exactly two).
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		l = horizontalWS.ReplaceAllString(l, " ")
		lines[i] = strings.TrimRight(strings.TrimLeft(l, " "), " ")
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}

// normalizePunctuationSpacing removes space before .,!?;: and ensures a
// single trailing space after, unless at end of input or already followed
// by whitespace/end.
func normalizePunctuationSpacing(s string) string {
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		if isSentencePunct(r) && i+1 < len(runes) {
			next := runes[i+1]
			if !unicode.IsSpace(next) && next != '\n' {
				b.WriteRune(' ')
			}
		}
	}
	return b.String()
}

func isSentencePunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}
