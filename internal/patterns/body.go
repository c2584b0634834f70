package patterns

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagPattern   = regexp.MustCompile(`(?i)<(?:p|div|br|h[1-6]|ul|ol|li|a|img|strong|em|span|section|article)\b[^>]*>`)
	mdHeadingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	mdHeadingLine    = regexp.MustCompile(`^\s{0,3}#{1,6}\s+\S`)
)

const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

// Body is a content body reduced to plain text plus its structural signals.
type Body struct {
	Text     string
	Headings []string
	HTML     bool
}

// ReduceBody reduces an HTML body to paragraph-separated text. Markdown and
// plain text pass through unchanged.
func ReduceBody(body string) Body {
	if !htmlTagPattern.MatchString(body) {
		return Body{
			Text:     body,
			Headings: markdownHeadings(body),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Body{Text: body, Headings: markdownHeadings(body)}
	}

	doc.Find("script, style, noscript").Remove()

	var headings []string
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if h := strings.TrimSpace(s.Text()); h != "" {
			headings = append(headings, h)
		}
	})

	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are collected through their innermost element.
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if t := collapseSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})

	text := strings.Join(blocks, "\n\n")
	if text == "" {
		text = collapseSpace(doc.Text())
	}
	return Body{Text: text, Headings: headings, HTML: true}
}

// PlainText returns the reduced text of body.
func PlainText(body string) string {
	return ReduceBody(body).Text
}

// IsHeadingLine reports whether line is a Markdown ATX heading.
func IsHeadingLine(line string) bool {
	return mdHeadingLine.MatchString(line)
}

func markdownHeadings(body string) []string {
	var headings []string
	for _, loc := range mdHeadingPattern.FindAllStringIndex(body, -1) {
		line := body[loc[0]:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
		}
		headings = append(headings, strings.TrimSpace(strings.TrimLeft(line, "#")))
	}
	return headings
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
