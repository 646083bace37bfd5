package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanSnippet strips the <highlighttext> markup hh.ru puts into vacancy
// snippets and collapses whitespace. Empty text yields nil.
func CleanSnippet(s *string) *string {
	if s == nil {
		return nil
	}

	text := *s
	if strings.ContainsAny(text, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return &text
}
