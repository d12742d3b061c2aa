package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const DefaultMaxDescriptionLength = 600

// Cleaner turns raw feed HTML fragments into bounded plain text. Script and
// style subtrees are dropped before tag stripping so their contents never
// leak into descriptions.
type Cleaner struct {
	htmlTagRe *regexp.Regexp
	junkRes   []*regexp.Regexp
}

func NewCleaner() *Cleaner {
	junkPatterns := []string{
		`(?i)read more.*$`,
		`(?i)continue reading.*$`,
		`(?i)source:.*$`,
		`(?i)image:.*$`,
		`(?i)photo:.*$`,
		`(?i)click here.*$`,
		`\[.*?\]`,
	}

	junkRes := make([]*regexp.Regexp, 0, len(junkPatterns))
	for _, p := range junkPatterns {
		junkRes = append(junkRes, regexp.MustCompile(p))
	}

	return &Cleaner{
		htmlTagRe: regexp.MustCompile(`<[^>]*>`),
		junkRes:   junkRes,
	}
}

// Run strips markup from input and bounds the result to maxLength runes.
// A maxLength of 0 applies DefaultMaxDescriptionLength.
func (c *Cleaner) Run(input string, maxLength int) string {
	if input == "" {
		return ""
	}
	if maxLength == 0 {
		maxLength = DefaultMaxDescriptionLength
	}

	text := c.stripHTML(input)
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")

	for _, re := range c.junkRes {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxLength {
		text = strings.TrimSpace(string(runes[:maxLength])) + "..."
	}

	return text
}

func (c *Cleaner) stripHTML(input string) string {
	if !strings.Contains(input, "<") {
		return input
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err == nil {
		doc.Find("script, style").Remove()
		if rendered, err := doc.Html(); err == nil {
			input = rendered
		}
	}

	// Tags become spaces so adjacent blocks keep word boundaries
	return c.htmlTagRe.ReplaceAllString(input, " ")
}
