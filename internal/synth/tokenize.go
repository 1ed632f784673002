package synth

import (
	"strings"
	"unicode"
)

// MaxChunk is the longest text Google Translate TTS accepts per request.
const MaxChunk = 100

// Tokenize splits text into chunks of at most limit characters. Text is first
// split after punctuation, then overlong pieces are cut at the last space
// that fits. Adjacent pieces are merged back while they fit.
func Tokenize(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunk
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var pieces []string
	for _, p := range splitPunctuation(text) {
		pieces = append(pieces, minimize(p, limit)...)
	}

	var chunks []string
	var cur string
	for _, p := range pieces {
		switch {
		case cur == "":
			cur = p
		case len([]rune(cur))+1+len([]rune(p)) <= limit:
			cur += " " + p
		default:
			chunks = append(chunks, cur)
			cur = p
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// splitPunctuation cuts text after sentence and clause punctuation. Periods,
// commas and colons only count when they are not inside a number.
func splitPunctuation(text string) []string {
	r := []rune(text)
	var out []string
	start := 0
	for i, c := range r {
		if !isBoundary(r, i, c) {
			continue
		}
		if p := clean(string(r[start : i+1])); p != "" {
			out = append(out, p)
		}
		start = i + 1
	}
	if p := clean(string(r[start:])); p != "" {
		out = append(out, p)
	}
	return out
}

func isBoundary(r []rune, i int, c rune) bool {
	next := rune(0)
	if i+1 < len(r) {
		next = r[i+1]
	}
	prev := rune(0)
	if i > 0 {
		prev = r[i-1]
	}

	switch c {
	case '?', '!', ';', '？', '！', '…', '。', '，', '、':
		return true
	case '.', ',':
		return next == 0 || unicode.IsSpace(next)
	case ':':
		return !(unicode.IsDigit(prev) && unicode.IsDigit(next))
	}
	return false
}

// minimize cuts s into pieces of at most limit runes, preferring spaces.
func minimize(s string, limit int) []string {
	var out []string
	r := []rune(s)
	for len(r) > limit {
		cut := limit
		for j := limit; j > 0; j-- {
			if r[j] == ' ' {
				cut = j
				break
			}
		}
		if p := strings.TrimSpace(string(r[:cut])); p != "" {
			out = append(out, p)
		}
		r = []rune(strings.TrimSpace(string(r[cut:])))
	}
	if p := strings.TrimSpace(string(r)); p != "" {
		out = append(out, p)
	}
	return out
}

// clean trims a piece and drops it when it holds no letters or digits.
func clean(s string) string {
	s = strings.TrimSpace(s)
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			return s
		}
	}
	return ""
}
