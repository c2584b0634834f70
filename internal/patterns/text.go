package patterns

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	sentenceEnd   = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
	paragraphSep  = regexp.MustCompile(`\n\s*\n`)
	linkPattern   = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	vowelGroups   = regexp.MustCompile(`[aeiouy]+`)
	capitalizedRe = regexp.MustCompile(`\b[A-Z]{4,}\b`)
)

// Words splits text into words, keeping inner apostrophes and hyphens.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r) && r != '\'' && r != '-'
	})
}

// WordCount returns the number of words in text.
func WordCount(text string) int {
	return len(Words(text))
}

// Sentences splits text on terminal punctuation. Blank lines and Markdown
// heading lines also end a sentence; heading text itself is dropped.
func Sentences(text string) []string {
	var out []string
	for _, segment := range proseSegments(text) {
		for _, p := range sentenceEnd.Split(segment, -1) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// proseSegments splits text at blank lines and heading lines.
func proseSegments(text string) []string {
	var segments []string
	var current []string
	flush := func() {
		if seg := strings.TrimSpace(strings.Join(current, "\n")); seg != "" {
			segments = append(segments, seg)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || IsHeadingLine(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return segments
}

// Paragraphs splits text on blank lines.
func Paragraphs(text string) []string {
	parts := paragraphSep.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DuplicateSentences counts sentences that repeat an earlier sentence.
func DuplicateSentences(text string) int {
	seen := make(map[string]bool)
	dupes := 0
	for _, s := range Sentences(text) {
		key := strings.Join(Words(Fold(s)), " ")
		if len(key) < 10 {
			continue
		}
		if seen[key] {
			dupes++
			continue
		}
		seen[key] = true
	}
	return dupes
}

// LinkCount returns the number of URLs in text.
func LinkCount(text string) int {
	return len(linkPattern.FindAllStringIndex(text, -1))
}

// ShoutingRuns returns the number of all-caps words of four or more letters.
func ShoutingRuns(text string) int {
	return len(capitalizedRe.FindAllStringIndex(text, -1))
}

// Syllables estimates the syllable count of an English word.
func Syllables(word string) int {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }))
	if w == "" {
		return 0
	}
	if len(w) <= 3 {
		return 1
	}
	w = strings.TrimSuffix(w, "es")
	w = strings.TrimSuffix(w, "ed")
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		w = strings.TrimSuffix(w, "e")
	}
	n := len(vowelGroups.FindAllStringIndex(w, -1))
	if n == 0 {
		return 1
	}
	return n
}

var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a about above after again against all am an and any are as at be because been
		before being below between both but by can could did do does doing down during each few for from further had
		has have having he her here hers herself him himself his how i if in into is it its itself just me more most my
		myself no nor not now of off on once only or other our ours ourselves out over own same she should so some such
		than that the their theirs them themselves then there these they this those through to too under until up very
		was we were what when where which while who whom why will with would you your yours yourself yourselves also
		said says one two new may us get got like`) {
		stopWords[w] = true
	}
}

// IsStopWord reports whether w is a common English function word.
func IsStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}

// KeyPhrases returns up to limit content words of text ordered by descending
// frequency, ties broken alphabetically.
func KeyPhrases(text string, limit int) []string {
	freq := make(map[string]int)
	for _, w := range Words(Fold(text)) {
		w = strings.Trim(w, "'-")
		if len([]rune(w)) < 3 || stopWords[w] || isNumeric(w) {
			continue
		}
		freq[w]++
	}
	phrases := make([]string, 0, len(freq))
	for w := range freq {
		phrases = append(phrases, w)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if freq[phrases[i]] != freq[phrases[j]] {
			return freq[phrases[i]] > freq[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})
	if limit > 0 && len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
