package duplicate

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// KeyPhraseLimit is the number of key phrases behind the semantic hash.
const KeyPhraseLimit = 20

// Normalize folds case and accents, replaces punctuation with spaces and
// collapses whitespace. Equal normalized text hashes equally.
func Normalize(text string) string {
	folded := patterns.Fold(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

func hashHex(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// normalizeURL reduces a URL to lowercase host without www plus path without
// trailing slash. Unparseable input is normalized as text.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host + strings.TrimSuffix(u.EscapedPath(), "/")
}

// NewFingerprint computes the signatures of content. The content hash covers
// the body alone so a retitled copy still matches exactly. It is a pure
// function of the content apart from CreatedAt.
func NewFingerprint(content *domain.ContentInput) *domain.Fingerprint {
	body := Normalize(content.Body)
	phrases := patterns.KeyPhrases(Normalize(content.FullText()), KeyPhraseLimit)

	sorted := append([]string(nil), phrases...)
	sort.Strings(sorted)

	fp := &domain.Fingerprint{
		ContentID:    content.ID,
		ContentType:  content.Type(),
		ContentHash:  hashHex(body),
		TitleHash:    hashHex(Normalize(content.Title)),
		SemanticHash: hashHex(strings.Join(sorted, " ")),
		URLHash:      hashHex(normalizeURL(content.SourceURL)),
		KeyPhrases:   phrases,
		CreatedAt:    time.Now().UTC(),
	}
	for _, img := range content.Images {
		if h := hashHex(normalizeURL(img.URL)); h != "" {
			fp.ImageHashes = append(fp.ImageHashes, h)
		}
	}
	return fp
}

// Jaccard is |a ∩ b| / |a ∪ b| over the sets of a and b. Two empty sets score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	union := len(set)
	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}
